package engine

import (
	"errors"

	"ggp/experiments/metrics"
)

var ErrNoMachine = errors.New("engine: no state machine offered")

type Engine interface {
	// Run plays a match until a terminal state or a max number of turns is reached
	Run() (gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}
