// Package optimization defines the contract shared by the Bioristor solvers.
package optimization

import (
	"github.com/copyleftdev/bioristor/internal/device"
)

// Algorithm is implemented by every solver. Run executes a bounded search
// on the calling goroutine and returns the best estimate it found.
type Algorithm interface {
	// Run tries to solve the model and returns the best solution found.
	// ErrNoCandidate is returned if nothing was evaluated.
	Run() (Solution, error)
}

// Solution is the outcome of a single run.
type Solution struct {
	// Variables is the estimated point in the search space.
	Variables device.Variables `json:"variables" yaml:"variables"`

	// Error is the loss of the estimate.
	Error float32 `json:"error" yaml:"error"`

	// Iterations counts the refinement rounds or steps executed. Exhaustive
	// searches report a single round.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Evaluations counts model evaluations.
	Evaluations int `json:"evaluations" yaml:"evaluations"`
}
