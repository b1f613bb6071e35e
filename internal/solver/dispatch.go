package solver

import (
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/optimization/algorithms"
	"github.com/copyleftdev/bioristor/internal/optimization/losses"
	"github.com/copyleftdev/bioristor/internal/optimization/models"
)

// build maps the names of a profile to a concrete algorithm. The system
// model is returned for Jacobian diagnostics and is nil for the equation
// formulation.
func build(p Profile, currents device.Currents) (optimization.Algorithm, models.SystemModel, error) {
	switch p.Formulation {
	case FormulationEquation:
		m := models.NewEquation(p.Model, currents)
		switch p.Loss {
		case LossAbsolute:
			a, err := equation(p, m, losses.Absolute{})
			return a, nil, err
		case LossSquared:
			a, err := equation(p, m, losses.Squared{})
			return a, nil, err
		}

	case FormulationSystem:
		m := models.NewSystem(p.Model, currents)
		var (
			a   optimization.Algorithm
			err error
		)
		switch p.Loss {
		case LossMaxRelative:
			a, err = system(p, m, losses.MaxRelative{})
		case LossMeanRelative:
			a, err = system(p, m, losses.MeanRelative{})
		case LossSumRelative:
			a, err = system(p, m, losses.SumRelative{})
		default:
			return nil, nil, unsupported(p)
		}
		return a, m, err
	}

	return nil, nil, unsupported(p)
}

func equation[L losses.ScalarLoss](p Profile, m *models.Equation, loss L) (optimization.Algorithm, error) {
	switch p.Algorithm {
	case AlgorithmBruteForce:
		return checked(algorithms.NewBruteForceEquation(p.BruteForce, m, loss))
	case AlgorithmAdaptive:
		return checked(algorithms.NewAdaptiveEquation(p.Adaptive, m, loss))
	case AlgorithmAdaptive2:
		return checked(algorithms.NewAdaptive2Equation(p.Adaptive2, m, loss))
	case AlgorithmGradientDescent:
		return checked(algorithms.NewGradientDescentEquation(p.GradientDescent, m, loss))
	case AlgorithmNewton:
		return checked(algorithms.NewNewtonEquation(p.Newton, m, loss))
	default:
		return nil, unsupported(p)
	}
}

func system[L losses.Loss](p Profile, m *models.System, loss L) (optimization.Algorithm, error) {
	switch p.Algorithm {
	case AlgorithmBruteForce:
		return checked(algorithms.NewBruteForceSystem(p.BruteForce, m, loss))
	case AlgorithmAdaptive:
		return checked(algorithms.NewAdaptiveSystem(p.Adaptive, m, loss))
	case AlgorithmAdaptive2:
		return checked(algorithms.NewAdaptive2System(p.Adaptive2, m, loss))
	default:
		return nil, unsupported(p)
	}
}

// checked keeps a nil constructor result from becoming a non-nil interface.
func checked[A optimization.Algorithm](a A, err error) (optimization.Algorithm, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Combination lists the losses an algorithm accepts for one formulation.
type Combination struct {
	Algorithm   string   `json:"algorithm" yaml:"algorithm"`
	Formulation string   `json:"formulation" yaml:"formulation"`
	Losses      []string `json:"losses" yaml:"losses"`
}

// Algorithms returns every combination build accepts.
func Algorithms() []Combination {
	scalar := []string{LossAbsolute, LossSquared}
	relative := []string{LossMaxRelative, LossMeanRelative, LossSumRelative}

	return []Combination{
		{AlgorithmBruteForce, FormulationEquation, scalar},
		{AlgorithmBruteForce, FormulationSystem, relative},
		{AlgorithmAdaptive, FormulationEquation, scalar},
		{AlgorithmAdaptive, FormulationSystem, relative},
		{AlgorithmAdaptive2, FormulationEquation, scalar},
		{AlgorithmAdaptive2, FormulationSystem, relative},
		{AlgorithmGradientDescent, FormulationEquation, scalar},
		{AlgorithmNewton, FormulationEquation, scalar},
	}
}
