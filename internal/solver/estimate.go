package solver

import (
	"math"
	"strconv"
)

// Float is a float32 that encodes the non-finite values as the JSON strings
// "NaN", "+Inf" and "-Inf".
type Float float32

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

// Estimate is the last point a run reached. It stays encodable after a
// divergence, when the solution holds non-finite values.
type Estimate struct {
	Algorithm     string `json:"algorithm" yaml:"algorithm"`
	Concentration Float  `json:"concentration" yaml:"concentration"`
	Resistance    Float  `json:"resistance" yaml:"resistance"`
	Saturation    Float  `json:"saturation" yaml:"saturation"`
	Error         Float  `json:"error" yaml:"error"`
	Iterations    int    `json:"iterations" yaml:"iterations"`
	Evaluations   int    `json:"evaluations" yaml:"evaluations"`
}

// Estimate returns the solution of the report as an Estimate.
func (r Report) Estimate() Estimate {
	sol := r.Solution
	return Estimate{
		Algorithm:     r.Algorithm,
		Concentration: Float(sol.Variables.Concentration),
		Resistance:    Float(sol.Variables.Resistance),
		Saturation:    Float(sol.Variables.Saturation),
		Error:         Float(sol.Error),
		Iterations:    sol.Iterations,
		Evaluations:   sol.Evaluations,
	}
}
