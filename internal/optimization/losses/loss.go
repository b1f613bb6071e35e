// Package losses provides the error metrics used to score candidate
// solutions. Every metric is a zero-size value type so algorithms can select
// it through a type parameter.
package losses

import (
	"math"

	"github.com/copyleftdev/bioristor/internal/device"
)

// Epsilon is added to every denominator so that an equation whose sides are
// both zero scores zero instead of NaN.
const Epsilon float32 = 1.1920929e-07

// Loss scores the residual of a system formulation.
type Loss interface {
	// Evaluate returns the loss of the three equation pairs.
	Evaluate(r device.Residual) float32
}

// ScalarLoss scores the output of an equation formulation.
type ScalarLoss interface {
	// EvaluateScalar returns the loss of a single model output.
	EvaluateScalar(v float32) float32
}

// MaxRelative is the largest relative error of the three equations, where
// the relative error of a pair is |a-b| / (|a|+|b|). A NaN equation is
// ignored unless all three are NaN.
type MaxRelative struct{}

// Evaluate implements Loss.
func (MaxRelative) Evaluate(r device.Residual) float32 {
	return maxNum(maxNum(relative(r[0]), relative(r[1])), relative(r[2]))
}

// MeanRelative is the arithmetic mean of the three relative errors.
type MeanRelative struct{}

// Evaluate implements Loss.
func (MeanRelative) Evaluate(r device.Residual) float32 {
	return (relative(r[0]) + relative(r[1]) + relative(r[2])) * (1.0 / 3.0)
}

// SumRelative is the sum of the three relative errors.
type SumRelative struct{}

// Evaluate implements Loss.
func (SumRelative) Evaluate(r device.Residual) float32 {
	return relative(r[0]) + relative(r[1]) + relative(r[2])
}

// Absolute is |v|. The equation formulation is zero at the solution, so the
// magnitude of its output is the natural error.
type Absolute struct{}

// EvaluateScalar implements ScalarLoss.
func (Absolute) EvaluateScalar(v float32) float32 {
	return abs(v)
}

// Squared is v². It penalizes large outputs more than Absolute.
type Squared struct{}

// EvaluateScalar implements ScalarLoss.
func (Squared) EvaluateScalar(v float32) float32 {
	return v * v
}

func relative(p device.Pair) float32 {
	return abs(p.Measured-p.Predicted) / (abs(p.Measured) + abs(p.Predicted) + Epsilon)
}

// maxNum returns the larger operand, or the other one when an operand is
// NaN. The built-in max propagates NaN instead.
func maxNum(a, b float32) float32 {
	switch {
	case a != a:
		return b
	case b != b:
		return a
	}
	return max(a, b)
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
