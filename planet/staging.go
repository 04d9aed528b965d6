package planet

import (
	"fmt"
	"log/slog"
	"sync"
)

// Staging keeps two copies of the parameter set: the live copy every pass
// reads for the current frame, and an editing copy that keys, config reloads
// and remote clients mutate. Commit swaps them atomically between frames so a
// frame never observes a half-applied edit.
type Staging struct {
	mu      sync.Mutex
	live    Parameters
	editing Parameters
	logger  *slog.Logger
}

// NewStaging starts with both copies equal to p.
func NewStaging(p Parameters, logger *slog.Logger) *Staging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Staging{live: p, editing: p, logger: logger}
}

// Live returns a copy of the parameters for the current frame.
func (s *Staging) Live() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Editing returns a copy of the pending edits.
func (s *Staging) Editing() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// Stage applies fn to the editing copy under the lock.
func (s *Staging) Stage(fn func(*Parameters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.editing)
}

// Commit recomputes derived fields on the edits, validates them and makes
// them live. On error the live set is unchanged and the edits are kept.
func (s *Staging) Commit() (Parameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.editing
	next.ScaleWithPlanetRadius()
	if err := next.Validate(); err != nil {
		return s.live, fmt.Errorf("commit parameters: %w", err)
	}
	s.live = next
	s.editing = next
	s.logger.Info("parameters committed",
		"planet_radius", next.PlanetRadius,
		"atmosphere_radius", next.AtmosphereRadius,
		"planet_max_steps", next.PlanetMaxSteps,
		"cloud_max_steps", next.CloudMaxSteps)
	return next, nil
}

// Reset discards pending edits.
func (s *Staging) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = s.live
}

// Dirty reports whether there are uncommitted edits.
func (s *Staging) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing != s.live
}
