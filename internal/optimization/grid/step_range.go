// Package grid provides the sampling and ranking primitives the solvers are
// built on: evenly stepped ranges and a bounded ensemble of best candidates.
package grid

import (
	"errors"
	"fmt"
	"iter"
)

// ErrInvalidSteps is returned by Validate when a range has fewer than one
// step.
var ErrInvalidSteps = errors.New("grid: steps must be at least 1")

// StepRange divides [Start, End) into Steps evenly spaced samples. End is an
// exclusive bound: the last sample is End - Increment().
type StepRange struct {
	Start float32 `json:"start" yaml:"start"`
	End   float32 `json:"end" yaml:"end"`
	Steps int     `json:"steps" yaml:"steps"`
}

// NewStepRange creates a range. Steps must be at least 1 for the range to
// produce any sample; use Validate to check it.
func NewStepRange(start, end float32, steps int) StepRange {
	return StepRange{Start: start, End: end, Steps: steps}
}

// Validate reports whether the range is usable.
func (r StepRange) Validate() error {
	if r.Steps < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSteps, r.Steps)
	}
	return nil
}

// Increment returns the distance between two consecutive samples.
func (r StepRange) Increment() float32 {
	if r.Steps < 1 {
		return 0
	}
	return (r.End - r.Start) / float32(r.Steps)
}

// Len returns the number of samples the range produces.
func (r StepRange) Len() int {
	if r.Steps < 1 {
		return 0
	}
	return r.Steps
}

// At returns the i-th sample. It does not check i against Len.
func (r StepRange) At(i int) float32 {
	return r.Start + float32(i)*r.Increment()
}

// All returns an iterator over the samples. Each call starts over from Start.
func (r StepRange) All() iter.Seq[float32] {
	return func(yield func(float32) bool) {
		inc := r.Increment()
		for i := 0; i < r.Len(); i++ {
			if !yield(r.Start + float32(i)*inc) {
				return
			}
		}
	}
}

// String implements fmt.Stringer.
func (r StepRange) String() string {
	return fmt.Sprintf("[%g, %g)/%d", r.Start, r.End, r.Steps)
}
