package experiments

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"ggp/experiments/metrics"
	"ggp/games"
	"ggp/operator"
	"ggp/statemachine"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Throughput describes a depth charge benchmark: every backend is measured
// with every goroutine count for Duration.
type Throughput struct {
	Game       *games.Game
	Backends   []operator.Backend
	Goroutines []int
	Duration   time.Duration
	Machine    []statemachine.Option
	Prometheus *metrics.Prometheus // Optional
}

// MeasureThroughput runs depth charges from the initial state on
// goroutines workers sharing one machine until duration elapses.
func MeasureThroughput(ctx context.Context, g *games.Game, backend operator.Backend, goroutines int, duration time.Duration, options ...statemachine.Option) (metrics.ThroughputRecord, error) {
	record := metrics.ThroughputRecord{Game: g.Name, Backend: backend.String(), Goroutines: goroutines}
	options = append(slices.Clip(options), statemachine.WithBackend(backend))
	sm, err := statemachine.New(g.Roles, g.Circuit, options...)
	if err != nil {
		return record, err
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	var charges atomic.Int64
	start := time.Now()
	for i := 0; i < goroutines; i++ {
		rng := rand.New(rand.NewSource(uint64(i) + 1))
		group.Go(func() error {
			for ctx.Err() == nil {
				_, _, err := sm.DepthCharge(sm.InitialState(), rng)
				if err != nil && !statemachine.IsTransient(err) {
					return fmt.Errorf("depth charge: %w", err)
				}
				charges.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return record, err
	}

	record.Duration = time.Since(start)
	record.Charges = int(charges.Load())
	record.Mismatches = sm.Mismatches()
	return record, nil
}

// RunThroughputExperiment measures every configuration in turn and writes
// throughput_records.csv under root.
func RunThroughputExperiment(ctx context.Context, root string, t Throughput) ([]metrics.ThroughputRecord, error) {
	log.Info().Msgf("starting throughput experiment on %s...", t.Game.Name)

	var records []metrics.ThroughputRecord
	for _, backend := range t.Backends {
		for _, goroutines := range t.Goroutines {
			record, err := MeasureThroughput(ctx, t.Game, backend, goroutines, t.Duration, t.Machine...)
			if err != nil {
				return records, fmt.Errorf("%s with %d goroutines: %w", backend, goroutines, err)
			}
			if t.Prometheus != nil {
				t.Prometheus.ObserveDepthCharges(record.Backend, strconv.Itoa(goroutines), record.Charges, record.Duration)
			}
			if record.Mismatches > 0 {
				log.Warn().Msgf("%s backend disagreed with the interpreter %d times", backend, record.Mismatches)
			}
			log.Info().Msgf("%s with %d goroutines: %.0f depth charges/s", backend, goroutines, record.PerSecond())
			records = append(records, record)
		}
	}

	if root == "" {
		return records, nil
	}
	writer, err := metrics.NewWriter(root, "throughput")
	if err != nil {
		return records, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteThroughputRecords(records); err != nil {
		return records, fmt.Errorf("failed to write throughput records: %w", err)
	}
	log.Info().Msgf("stored throughput records in %s", writer.Dir())
	return records, nil
}
