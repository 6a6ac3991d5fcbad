package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunID identifies one invocation of the loader in logs and metrics.
type RunID string

// NewRunID generates a new UUID v4 run identifier.
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// Validate checks that the RunID is a valid UUID.
func (id RunID) Validate() error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return fmt.Errorf("invalid run id format: %w", err)
	}
	return nil
}

// Short returns the first eight characters, enough to tell runs apart in a
// terminal.
func (id RunID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Stopwatch measures elapsed wall time of a stage.
type Stopwatch struct {
	start time.Time
	now   func() time.Time
}

// StartStopwatch starts a Stopwatch on the real clock.
func StartStopwatch() Stopwatch {
	return Stopwatch{start: time.Now(), now: time.Now}
}

// Elapsed returns the time since the Stopwatch started.
func (s Stopwatch) Elapsed() time.Duration {
	if s.now == nil {
		return 0
	}
	return s.now().Sub(s.start)
}

//Personal.AI order the ending
