// Package config reads the YAML match configuration used by the command
// line and maps it onto the constructors' functional options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ggp/game"
	"ggp/games"
	"ggp/meta"
	"ggp/netfile"
	"ggp/operator"
	"ggp/searcher"
	"ggp/statemachine"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Machine struct {
	Backend      string `yaml:"backend"`
	MaxChunkCost int    `yaml:"max_chunk_cost"`
	Simplify     string `yaml:"simplify"`
	DepthLimit   int    `yaml:"depth_limit"`
	CacheSize    int    `yaml:"cache_size"` // 0 disables the cache
}

type Search struct {
	Goroutines  int           `yaml:"goroutines"`
	Duration    time.Duration `yaml:"duration"`
	Episodes    int           `yaml:"episodes"`
	Cutoff      int           `yaml:"cutoff"`
	Exploration float64       `yaml:"exploration"` // c² of the UCT bound
	Evaluator   string        `yaml:"evaluator"`
}

type Config struct {
	Game        string   `yaml:"game"` // Builtin game name or netfile path
	Machine     Machine  `yaml:"machine"`
	Search      Search   `yaml:"search"`
	Agents      []string `yaml:"agents"` // Agent kind per role
	MaxTurns    int      `yaml:"max_turns"`
	LogLevel    string   `yaml:"log_level"`
	MetricsAddr string   `yaml:"metrics_addr"`
}

func Default() Config {
	return Config{
		Game: "tictactoe",
		Machine: Machine{
			Backend:      operator.Interpreter.String(),
			MaxChunkCost: meta.MAX_CHUNK_COST,
			Simplify:     statemachine.SimplifyOnce.String(),
			DepthLimit:   meta.DEPTH_CHARGE_LIMIT,
		},
		Search: Search{
			Goroutines:  meta.GO_ROUTINES,
			Episodes:    meta.EPISODES,
			Exploration: searcher.DefaultExploration,
			Evaluator:   "goal-mobility",
		},
		MaxTurns: meta.MAX_TURNS,
		LogLevel: zerolog.InfoLevel.String(),
	}
}

// Load reads and validates the configuration at path. Keys it does not set
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	c := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("yaml parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	if _, err := operator.ParseBackend(c.Machine.Backend); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := statemachine.ParseSimplifyMode(c.Machine.Simplify); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.Machine.MaxChunkCost <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_chunk_cost must be positive, got %d", c.Machine.MaxChunkCost))
	}
	if c.Machine.CacheSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.Machine.CacheSize))
	}
	if c.Search.Episodes <= 0 && c.Search.Duration <= 0 {
		errs = multierror.Append(errs, errors.New("search needs episodes or a duration"))
	}
	if c.Search.Exploration < 0 {
		errs = multierror.Append(errs, fmt.Errorf("exploration must not be negative, got %g", c.Search.Exploration))
	}
	if _, ok := game.Evaluators[c.Search.Evaluator]; !ok {
		errs = multierror.Append(errs, fmt.Errorf("unknown evaluator %q", c.Search.Evaluator))
	}
	for _, kind := range c.Agents {
		switch kind {
		case "mcts", "random", "legal":
		default:
			errs = multierror.Append(errs, fmt.Errorf("unknown agent kind %q", kind))
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// MachineOptions maps the machine section onto statemachine options.
func (c Config) MachineOptions() ([]statemachine.Option, error) {
	backend, err := operator.ParseBackend(c.Machine.Backend)
	if err != nil {
		return nil, err
	}
	mode, err := statemachine.ParseSimplifyMode(c.Machine.Simplify)
	if err != nil {
		return nil, err
	}
	return []statemachine.Option{
		statemachine.WithBackend(backend),
		statemachine.WithMaxChunkCost(c.Machine.MaxChunkCost),
		statemachine.WithSimplify(mode),
		statemachine.WithDepthLimit(c.Machine.DepthLimit),
	}, nil
}

// SearchOptions maps the search section onto searcher options.
func (c Config) SearchOptions() []searcher.Option {
	return []searcher.Option{
		searcher.WithGoroutines(c.Search.Goroutines),
		searcher.WithDuration(c.Search.Duration),
		searcher.WithEpisodes(c.Search.Episodes),
		searcher.WithCutoff(c.Search.Cutoff),
		searcher.WithExploration(c.Search.Exploration),
		searcher.WithEvaluationFn(game.Evaluators[c.Search.Evaluator]),
	}
}

func (c Config) ApplyLogLevel() error {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// LoadGame resolves the game setting: a builtin name, or else a circuit
// file.
func (c Config) LoadGame() (*games.Game, error) {
	if g, ok := games.Builtin(c.Game); ok {
		return g, nil
	}
	if strings.HasSuffix(c.Game, ".yaml") || strings.HasSuffix(c.Game, ".yml") {
		return netfile.LoadFile(c.Game)
	}
	return nil, fmt.Errorf("unknown game %q", c.Game)
}

// NewMachine builds the configured state machine for g, wrapped in a cache
// when cache_size is set.
func (c Config) NewMachine(g *games.Game) (statemachine.StateMachine, error) {
	options, err := c.MachineOptions()
	if err != nil {
		return nil, err
	}
	sm, err := statemachine.New(g.Roles, g.Circuit, options...)
	if err != nil {
		return nil, err
	}
	if c.Machine.CacheSize == 0 {
		return sm, nil
	}
	cached, err := statemachine.NewCached(sm, c.Machine.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
