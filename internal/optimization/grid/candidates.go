package grid

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/copyleftdev/bioristor/internal/device"
)

// MaxCandidates is the largest ensemble a BestCandidates can hold.
const MaxCandidates = 64

// ErrCapacity is returned for ensemble sizes outside [1, MaxCandidates].
var ErrCapacity = errors.New("grid: invalid ensemble size")

// Candidate is a point of the search space together with its loss.
type Candidate struct {
	Variables device.Variables
	Error     float32
}

var emptyCandidate = Candidate{Error: float32(math.Inf(1))}

// BestCandidates retains the n lowest-error candidates seen since the last
// Clear, sorted ascending by error. Storage is a fixed array; unused slots
// hold the zero point with an infinite error and are ignored by the
// aggregates.
type BestCandidates struct {
	slots [MaxCandidates]Candidate
	n     int
}

// NewBestCandidates returns an empty ensemble of size n.
func NewBestCandidates(n int) (*BestCandidates, error) {
	b := &BestCandidates{}
	if err := b.Init(n); err != nil {
		return nil, err
	}
	return b, nil
}

// Init sizes the ensemble to n and clears it. It lets callers keep the
// ensemble in a local variable.
func (b *BestCandidates) Init(n int) error {
	if n < 1 || n > MaxCandidates {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrCapacity, n, MaxCandidates)
	}
	b.n = n
	b.Clear()
	return nil
}

// Clear resets every slot to the empty candidate.
func (b *BestCandidates) Clear() {
	for i := range b.slots[:b.n] {
		b.slots[i] = emptyCandidate
	}
}

// Size returns the capacity of the ensemble.
func (b *BestCandidates) Size() int {
	return b.n
}

// Len returns the number of populated slots.
func (b *BestCandidates) Len() int {
	count := 0
	for _, c := range b.slots[:b.n] {
		if isFinite(c.Error) {
			count++
		}
	}
	return count
}

// At returns the i-th best slot.
func (b *BestCandidates) At(i int) Candidate {
	return b.slots[i]
}

// Worst returns the error of the last ranked slot.
func (b *BestCandidates) Worst() float32 {
	return b.slots[b.n-1].Error
}

// Add inserts the candidate if its error is lower than the current worst.
// It reports whether the candidate was kept. On equal errors the earlier
// candidate keeps the better rank.
func (b *BestCandidates) Add(v device.Variables, err float32) bool {
	if !(err < b.slots[b.n-1].Error) {
		return false
	}
	b.slots[b.n-1] = Candidate{Variables: v, Error: err}
	slices.SortStableFunc(b.slots[:b.n], compareError)
	return true
}

// AddConcentration is Add for the single-variable formulation.
func (b *BestCandidates) AddConcentration(c, err float32) bool {
	return b.Add(device.Variables{Concentration: c}, err)
}

// MeanConcentration returns the mean concentration of the populated slots.
// ok is false when no slot is populated.
func (b *BestCandidates) MeanConcentration() (mean float32, ok bool) {
	var sum float32
	n := 0
	for _, c := range b.slots[:b.n] {
		if isFinite(c.Error) {
			sum += c.Variables.Concentration
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float32(n), true
}

// Best returns the componentwise mean of the populated slots and their mean
// error. Averaging the ensemble damps the quantization noise of a grid
// sweep. ok is false when no slot is populated.
func (b *BestCandidates) Best() (v device.Variables, err float32, ok bool) {
	var c, r, s, e float32
	n := 0
	for _, cand := range b.slots[:b.n] {
		if !isFinite(cand.Error) {
			continue
		}
		c += cand.Variables.Concentration
		r += cand.Variables.Resistance
		s += cand.Variables.Saturation
		e += cand.Error
		n++
	}
	if n == 0 {
		return device.Variables{}, 0, false
	}
	inv := 1 / float32(n)
	return device.Variables{
		Concentration: c * inv,
		Resistance:    r * inv,
		Saturation:    s * inv,
	}, e * inv, true
}

func compareError(a, b Candidate) int {
	switch {
	case a.Error < b.Error:
		return -1
	case a.Error > b.Error:
		return 1
	default:
		return 0
	}
}

func isFinite(f float32) bool {
	return !math.IsInf(float64(f), 0) && !math.IsNaN(float64(f))
}
