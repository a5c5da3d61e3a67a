package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type AgentConfig struct {
	ID         int
	Kind       string // mcts, random or legal
	Goroutines int
	Duration   time.Duration
	Episodes   int
	Cutoff     int
	Evaluator  string
}

type GameRecord struct {
	ID     int
	Agents []int // AgentConfig.ID per role
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

type ThroughputRecord struct {
	Game       string
	Backend    string
	Goroutines int
	Charges    int
	Duration   time.Duration
	Mismatches int64
}

// PerSecond is the depth charge rate of the record.
func (r ThroughputRecord) PerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Charges) / r.Duration.Seconds()
}

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped directory for one experiment under root.
func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string { return w.baseDir }

func (w *Writer) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}
	return nil
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "kind", "goroutines", "duration", "episodes", "cutoff", "evaluator"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			config.Kind,
			strconv.Itoa(config.Goroutines),
			config.Duration.String(),
			strconv.Itoa(config.Episodes),
			strconv.Itoa(config.Cutoff),
			config.Evaluator,
		})
	}
	return w.write("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agents", "goals", "completed", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		agents := make([]string, len(record.Agents))
		for i, a := range record.Agents {
			agents[i] = strconv.Itoa(a)
		}
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strings.Join(agents, " "),
			formatGoals(record.Goals),
			strconv.FormatBool(record.Completed),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "duration", "episodes", "rollouts", "full_playouts", "rollout_depth", "is_tree_reset"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Player,
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.Rollouts),
			strconv.Itoa(record.FullPlayouts),
			strconv.FormatFloat(record.RolloutDepth, 'f', 2, 64),
			strconv.FormatBool(record.IsTreeReset),
		})
	}
	return w.write("move_records.csv", header, rows)
}

func (w *Writer) WriteThroughputRecords(records []ThroughputRecord) error {
	header := []string{"game", "backend", "goroutines", "charges", "duration", "per_second", "mismatches"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Game,
			record.Backend,
			strconv.Itoa(record.Goroutines),
			strconv.Itoa(record.Charges),
			record.Duration.String(),
			strconv.FormatFloat(record.PerSecond(), 'f', 1, 64),
			strconv.FormatInt(record.Mismatches, 10),
		})
	}
	return w.write("throughput_records.csv", header, rows)
}

// formatGoals writes goals as "role=value" pairs sorted by role.
func formatGoals(goals map[string]int) string {
	roles := make([]string, 0, len(goals))
	for role := range goals {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	pairs := make([]string, len(roles))
	for i, role := range roles {
		pairs[i] = fmt.Sprintf("%s=%d", role, goals[role])
	}
	return strings.Join(pairs, " ")
}
