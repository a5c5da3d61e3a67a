package statemachine

import (
	"cmp"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

type candidate struct {
	name     string
	priority int
	machine  StateMachine
}

// Selector holds the state machines available for one match, ordered by
// priority. It is created per match and passed to whoever needs a machine.
type Selector struct {
	sync.RWMutex
	candidates []candidate
}

func NewSelector() *Selector {
	return &Selector{}
}

// Offer adds or replaces the machine registered under name.
func (s *Selector) Offer(name string, priority int, sm StateMachine) {
	s.Lock()
	defer s.Unlock()

	s.candidates = slices.DeleteFunc(s.candidates, func(c candidate) bool { return c.name == name })
	s.candidates = append(s.candidates, candidate{name: name, priority: priority, machine: sm})
	slices.SortStableFunc(s.candidates, func(a, b candidate) int {
		return cmp.Compare(b.priority, a.priority)
	})
	log.Debug().Msgf("state machine %s offered with priority %d", name, priority)
}

// Withdraw removes the machine registered under name, for example after it
// was caught disagreeing with a reference.
func (s *Selector) Withdraw(name string) {
	s.Lock()
	defer s.Unlock()

	s.candidates = slices.DeleteFunc(s.candidates, func(c candidate) bool { return c.name == name })
	log.Warn().Msgf("state machine %s withdrawn", name)
}

// Current returns the highest priority machine and its name.
func (s *Selector) Current() (string, StateMachine, bool) {
	s.RLock()
	defer s.RUnlock()

	if len(s.candidates) == 0 {
		return "", nil, false
	}
	return s.candidates[0].name, s.candidates[0].machine, true
}

// Names lists registered machines from highest to lowest priority.
func (s *Selector) Names() []string {
	s.RLock()
	defer s.RUnlock()

	names := make([]string, len(s.candidates))
	for i, c := range s.candidates {
		names[i] = c.name
	}
	return names
}
