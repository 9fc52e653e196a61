package wizard

import (
	"fmt"
	"sync"
	"time"
)

// Session guards one wizard State. Every stage carries a generation counter
// that is bumped whenever the stage is (re)started or cleared; results that
// arrive for an older generation are dropped.
type Session struct {
	id string

	mu     sync.Mutex
	state  State
	gens   [stageCount]uint64
	causes [stageCount]error
}

func newSession(id string) *Session {
	return &Session{id: id, state: initialState(id)}
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) updatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdatedAt
}

// begin starts a new generation of stage, clearing it and everything
// downstream. Callers hold s.mu.
func (s *Session) begin(stage Stage) uint64 {
	for st := stage; st <= StagePromoStrategy; st++ {
		s.gens[st]++
		s.causes[st] = nil
	}
	s.state.clearFrom(stage)
	s.state.setStatus(stage, StatusLoading, "")
	s.state.Current = stage
	s.state.UpdatedAt = time.Now().UTC()
	return s.gens[stage]
}

// pending returns a snapshot when stage is still loading for gen.
func (s *Session) pending(stage Stage, gen uint64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, _ := s.state.StatusOf(stage)
	if s.gens[stage] != gen || status != StatusLoading {
		return State{}, false
	}
	return s.state, true
}

// apply runs fn against the state if gen is still current for stage.
func (s *Session) apply(stage Stage, gen uint64, fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[stage] != gen {
		return false
	}
	fn(&s.state)
	s.state.UpdatedAt = time.Now().UTC()
	return true
}

// fail marks stage as failed for gen with its terminal message.
func (s *Session) fail(stage Stage, gen uint64, msg string, cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[stage] != gen {
		return false
	}
	s.state.setStatus(stage, StatusFailed, msg)
	s.causes[stage] = cause
	s.state.UpdatedAt = time.Now().UTC()
	return true
}

// outcome returns the state after a stage run, with an error when the stage
// ended in failure.
func (s *Session) outcome(stage Stage) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, msg := s.state.StatusOf(stage)
	if status != StatusFailed {
		return s.state, nil
	}
	if cause := s.causes[stage]; cause != nil {
		return s.state, fmt.Errorf("%w: %s: %w", ErrStageFailed, msg, cause)
	}
	return s.state, fmt.Errorf("%w: %s", ErrStageFailed, msg)
}

func (s *Session) reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gens {
		s.gens[i]++
		s.causes[i] = nil
	}
	s.state = initialState(s.id)
	return s.state
}
