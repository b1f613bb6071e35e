package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/bioristor/internal/device"
)

func collect(r StepRange) []float32 {
	var out []float32
	for v := range r.All() {
		out = append(out, v)
	}
	return out
}

func TestStepRange(t *testing.T) {
	r := NewStepRange(0, 1, 10)
	require.NoError(t, r.Validate())

	got := collect(r)
	require.Len(t, got, 10)
	for i, v := range got {
		assert.InDelta(t, float64(i)*0.1, v, 1e-6, "sample %d", i)
	}
	assert.NotContains(t, got, float32(1.0), "end bound is exclusive")
	assert.InDelta(t, 0.1, r.Increment(), 1e-7)
	assert.Equal(t, 10, r.Len())
	assert.InDelta(t, 0.5, r.At(5), 1e-6)
}

func TestStepRangeRestartable(t *testing.T) {
	r := NewStepRange(-2, 2, 4)

	first := collect(r)
	second := collect(r)
	assert.Equal(t, []float32{-2, -1, 0, 1}, first)
	assert.Equal(t, first, second)
}

func TestStepRangeEarlyBreak(t *testing.T) {
	r := NewStepRange(0, 10, 10)

	count := 0
	for v := range r.All() {
		if v >= 3 {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestStepRangeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		steps int
	}{
		{"zero steps", 0},
		{"negative steps", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStepRange(0, 1, tt.steps)
			assert.ErrorIs(t, r.Validate(), ErrInvalidSteps)
			assert.Empty(t, collect(r))
			assert.Equal(t, 0, r.Len())
			assert.Equal(t, float32(0), r.Increment())
		})
	}
}

func TestStepRangeSingleStep(t *testing.T) {
	assert.Equal(t, []float32{3}, collect(NewStepRange(3, 7, 1)))
}

func TestNewBestCandidates(t *testing.T) {
	_, err := NewBestCandidates(0)
	assert.ErrorIs(t, err, ErrCapacity)

	_, err = NewBestCandidates(MaxCandidates + 1)
	assert.ErrorIs(t, err, ErrCapacity)

	b, err := NewBestCandidates(3)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Size())
	assert.Equal(t, 0, b.Len())
	for i := 0; i < 3; i++ {
		assert.Equal(t, device.Variables{}, b.At(i).Variables)
		assert.True(t, math.IsInf(float64(b.At(i).Error), 1))
	}
}

func TestBestCandidatesAdd(t *testing.T) {
	b, err := NewBestCandidates(3)
	require.NoError(t, err)

	for _, e := range []float32{5, 3, 1, 4, 2} {
		b.AddConcentration(e*10, e)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, float32(1), b.At(0).Error)
	assert.Equal(t, float32(2), b.At(1).Error)
	assert.Equal(t, float32(3), b.At(2).Error)
	assert.Equal(t, float32(10), b.At(0).Variables.Concentration)
	assert.Equal(t, float32(20), b.At(1).Variables.Concentration)
	assert.Equal(t, float32(30), b.At(2).Variables.Concentration)
}

func TestBestCandidatesRejects(t *testing.T) {
	b, err := NewBestCandidates(2)
	require.NoError(t, err)

	assert.True(t, b.AddConcentration(1, 1))
	assert.True(t, b.AddConcentration(2, 2))
	assert.False(t, b.AddConcentration(3, 3), "worse than worst")
	assert.False(t, b.AddConcentration(4, 2), "equal to worst")
	assert.False(t, b.AddConcentration(5, float32(math.NaN())))
	assert.False(t, b.AddConcentration(6, float32(math.Inf(1))))
	assert.Equal(t, float32(2), b.Worst())
}

func TestBestCandidatesTieKeepsFirst(t *testing.T) {
	b, err := NewBestCandidates(3)
	require.NoError(t, err)

	b.AddConcentration(1, 0.5)
	b.AddConcentration(2, 0.5)
	b.AddConcentration(3, 0.5)

	assert.Equal(t, float32(1), b.At(0).Variables.Concentration)
	assert.Equal(t, float32(2), b.At(1).Variables.Concentration)
	assert.Equal(t, float32(3), b.At(2).Variables.Concentration)
}

func TestBestCandidatesMean(t *testing.T) {
	b, err := NewBestCandidates(3)
	require.NoError(t, err)

	_, ok := b.MeanConcentration()
	assert.False(t, ok, "empty ensemble has no mean")

	b.AddConcentration(0, 0)
	b.AddConcentration(1, 1)
	mean, ok := b.MeanConcentration()
	require.True(t, ok)
	assert.Equal(t, float32(0.5), mean, "infinite slot is excluded")

	b.AddConcentration(2, 2)
	mean, ok = b.MeanConcentration()
	require.True(t, ok)
	assert.Equal(t, float32(1), mean)
}

func TestBestCandidatesBest(t *testing.T) {
	b, err := NewBestCandidates(3)
	require.NoError(t, err)

	_, _, ok := b.Best()
	assert.False(t, ok)

	b.Add(device.Variables{Concentration: 0, Resistance: 0, Saturation: 0}, 0)
	b.Add(device.Variables{Concentration: 1, Resistance: 1, Saturation: 1}, 1)

	v, e, ok := b.Best()
	require.True(t, ok)
	assert.Equal(t, device.Variables{Concentration: 0.5, Resistance: 0.5, Saturation: 0.5}, v)
	assert.Equal(t, float32(0.5), e)

	b.Add(device.Variables{Concentration: 2, Resistance: 2, Saturation: 2}, 2)
	v, e, ok = b.Best()
	require.True(t, ok)
	assert.Equal(t, device.Variables{Concentration: 1, Resistance: 1, Saturation: 1}, v)
	assert.Equal(t, float32(1), e)
}

func TestBestCandidatesClear(t *testing.T) {
	b, err := NewBestCandidates(2)
	require.NoError(t, err)

	b.AddConcentration(1, 0)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.True(t, math.IsInf(float64(b.Worst()), 1))
	assert.True(t, b.AddConcentration(5, 100))
}
