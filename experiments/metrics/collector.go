// Package metrics collects search and match statistics and writes them as
// CSV records or exports them to prometheus.
package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one move search.
type SearchMetric struct {
	Goroutines   int
	Duration     time.Duration
	Episodes     int
	Cutoff       int
	Rollouts     int
	FullPlayouts int     // Rollouts that reached a terminal state
	RolloutDepth float64 // Mean moves played per rollout
	IsTreeReset  bool
}

type MoveMetric struct {
	Step   int
	Player string // Role name
	SearchMetric
}

type GameMetric struct {
	Goals      map[string]int // Role name to payoff
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
	Completed  bool // false when the turn limit stopped the match
}

// Collector is fed by every search worker concurrently. Start and Complete
// bracket one search and are called from the searching goroutine only.
type Collector interface {
	Start(goroutines, cutoff int)
	SetTreeReset(value bool)
	// AddRollout records a rollout of depth moves. terminal is false when
	// the cutoff stopped it and the state was evaluated instead.
	AddRollout(depth int, terminal bool)
	AddEpisode()
	Complete() SearchMetric
}

type collector struct {
	goroutines   int
	cutoff       int
	startTime    time.Time
	episodes     atomic.Int64
	rollouts     atomic.Int64
	fullPlayouts atomic.Int64
	depth        atomic.Int64
	isTreeReset  atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) SetTreeReset(value bool) {
	c.isTreeReset.Store(value)
}

func (c *collector) Start(goroutines, cutoff int) {
	c.startTime = time.Now()
	c.goroutines = goroutines
	c.cutoff = cutoff
	c.episodes.Store(0)
	c.rollouts.Store(0)
	c.fullPlayouts.Store(0)
	c.depth.Store(0)
}

func (c *collector) AddRollout(depth int, terminal bool) {
	c.rollouts.Add(1)
	c.depth.Add(int64(depth))
	if terminal {
		c.fullPlayouts.Add(1)
	}
}

func (c *collector) AddEpisode() {
	c.episodes.Add(1)
}

func (c *collector) Complete() SearchMetric {
	m := SearchMetric{
		Goroutines:   c.goroutines,
		Duration:     time.Since(c.startTime),
		Episodes:     int(c.episodes.Load()),
		Cutoff:       c.cutoff,
		Rollouts:     int(c.rollouts.Load()),
		FullPlayouts: int(c.fullPlayouts.Load()),
		IsTreeReset:  c.isTreeReset.Load(),
	}
	if m.Rollouts > 0 {
		m.RolloutDepth = float64(c.depth.Load()) / float64(m.Rollouts)
	}
	return m
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return dummyCollector{}
}

func (dummyCollector) Start(goroutines, cutoff int)        {}
func (dummyCollector) SetTreeReset(value bool)             {}
func (dummyCollector) AddRollout(depth int, terminal bool) {}
func (dummyCollector) AddEpisode()                         {}
func (dummyCollector) Complete() SearchMetric              { return SearchMetric{} }
