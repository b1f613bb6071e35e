package losses

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copyleftdev/bioristor/internal/device"
)

var (
	sameSign     = device.Residual{{Measured: 1, Predicted: 2}, {Measured: 3, Predicted: 4}, {Measured: 5, Predicted: 6}}
	oppositeSign = device.Residual{{Measured: -1, Predicted: 2}, {Measured: -3, Predicted: 4}, {Measured: 5, Predicted: -6}}
)

func TestRelativeLosses(t *testing.T) {
	tests := []struct {
		name     string
		loss     Loss
		residual device.Residual
		expected float64
		delta    float64
	}{
		{"max relative", MaxRelative{}, sameSign, 0.333333, 1e-6},
		{"max relative opposite signs", MaxRelative{}, oppositeSign, 1, 1e-6},
		{"mean relative", MeanRelative{}, sameSign, 0.189033, 1e-6},
		{"mean relative opposite signs", MeanRelative{}, oppositeSign, 1, 1e-6},
		{"sum relative", SumRelative{}, sameSign, 0.567099, 1e-6},
		{"sum relative opposite signs", SumRelative{}, oppositeSign, 3, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.loss.Evaluate(tt.residual), tt.delta)
		})
	}
}

func TestRelativeLossesSymmetric(t *testing.T) {
	swapped := device.Residual{}
	for i, p := range sameSign {
		swapped[i] = device.Pair{Measured: p.Predicted, Predicted: p.Measured}
	}

	for _, loss := range []Loss{MaxRelative{}, MeanRelative{}, SumRelative{}} {
		assert.Equal(t, loss.Evaluate(sameSign), loss.Evaluate(swapped))
	}
}

func TestRelativeLossesZeroSides(t *testing.T) {
	zero := device.Residual{}

	for _, loss := range []Loss{MaxRelative{}, MeanRelative{}, SumRelative{}} {
		assert.Equal(t, float32(0), loss.Evaluate(zero))
	}
}

func TestMaxRelativeIgnoresNaN(t *testing.T) {
	nan := float32(math.NaN())

	tests := []struct {
		name     string
		residual device.Residual
		expected float64
	}{
		{"first", device.Residual{{Measured: nan, Predicted: 1}, {Measured: 3, Predicted: 4}, {Measured: 5, Predicted: 6}}, 1.0 / 7},
		{"middle", device.Residual{{Measured: 1, Predicted: 2}, {Measured: nan, Predicted: 4}, {Measured: 5, Predicted: 6}}, 1.0 / 3},
		{"last", device.Residual{{Measured: 1, Predicted: 2}, {Measured: 3, Predicted: 4}, {Measured: 5, Predicted: nan}}, 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxRelative{}.Evaluate(tt.residual), 1e-6)
		})
	}

	all := device.Residual{{Measured: nan, Predicted: 1}, {Measured: nan, Predicted: 1}, {Measured: nan, Predicted: 1}}
	assert.True(t, math.IsNaN(float64(MaxRelative{}.Evaluate(all))))
}

func TestScalarLosses(t *testing.T) {
	assert.Equal(t, float32(3), Absolute{}.EvaluateScalar(-3))
	assert.Equal(t, float32(3), Absolute{}.EvaluateScalar(3))
	assert.Equal(t, float32(9), Squared{}.EvaluateScalar(-3))
	assert.Equal(t, float32(0), Squared{}.EvaluateScalar(0))
}
