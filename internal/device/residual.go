package device

// Pair holds the two sides of one governing equation of the device.
type Pair struct {
	Measured  float32 `json:"measured"`
	Predicted float32 `json:"predicted"`
}

// Residual is the output of a system formulation: one pair per governing
// equation. Its length is fixed by the physics.
type Residual [3]Pair

// Differences returns measured minus predicted for each equation.
func (r Residual) Differences() [3]float32 {
	return [3]float32{
		r[0].Measured - r[0].Predicted,
		r[1].Measured - r[1].Predicted,
		r[2].Measured - r[2].Predicted,
	}
}
