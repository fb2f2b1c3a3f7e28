package cutstock

import (
	"fmt"
	"time"
)

type Options struct {
	// Epsilon is the reduced cost a pattern must beat, as -Epsilon, to be
	// added to the master.
	Epsilon float64
	// RoundingTolerance bounds the distance between a solver value and the
	// integer it is rounded to.
	RoundingTolerance float64
	// MaxIterations caps the master solves of the generation loop; 0
	// disables the cap.
	MaxIterations int
	// TimeBudget caps the wall clock time of the generation loop; 0
	// disables it.
	TimeBudget time.Duration
	// DedupPatterns stops the loop when pricing proposes a pattern that is
	// already pooled instead of adding it again.
	DedupPatterns bool
}

func DefaultOptions() Options {
	return Options{
		Epsilon:           1e-6,
		RoundingTolerance: 1e-6,
		MaxIterations:     1000,
		DedupPatterns:     true,
	}
}

func (o Options) Validate() error {
	if !(o.Epsilon > 0) {
		return fmt.Errorf("epsilon must be > 0, got %g", o.Epsilon)
	}
	if !(o.RoundingTolerance > 0) || o.RoundingTolerance >= 0.5 {
		return fmt.Errorf("roundingTolerance must be in (0, 0.5), got %g", o.RoundingTolerance)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must be >= 0, got %d", o.MaxIterations)
	}
	if o.TimeBudget < 0 {
		return fmt.Errorf("timeBudget must be >= 0, got %v", o.TimeBudget)
	}
	return nil
}
