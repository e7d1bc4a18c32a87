// Package costfuncs provides the reporting cost functions used by
// Network.Cost and by the acceptance metric in scenario S2 (MSE < 0.1). The
// backprop gradient itself is fixed by spec.md §4.2's RTRL-for-gated-
// networks equations (responsibility = target - activation), so
// CostFunction here is read-only: it summarizes a (values, targets) pair
// into one number, the same split the teacher makes between its
// reporting-only CostFunction and the separate delta-computation path.
package costfuncs

import "math"

// CostFunction summarizes a network's outputs against targets. Both slices
// are guaranteed equal length by callers.
type CostFunction interface {
	Cost(values, targets []float64) float64
	TypeString() string
}

type squaredError struct{}

// SquaredError returns the summed (not averaged) squared error, as used by
// the teacher's squarederror.go.
func SquaredError() squaredError {
	return squaredError{}
}

func (squaredError) Cost(values, targets []float64) float64 {
	var total float64
	for i := range values {
		total += math.Pow(values[i]-targets[i], 2)
	}
	return total
}

func (squaredError) TypeString() string {
	return "squared-error"
}

type mse struct{}

// MSE returns the mean squared error, halved as in the teacher's
// costfuncs/mse.go, so that its derivative w.r.t. a single output is
// (output - target) / len(values).
func MSE() mse {
	return mse{}
}

func (mse) Cost(values, targets []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for i := range values {
		sum += 0.5 * math.Pow(values[i]-targets[i], 2)
	}
	return sum / float64(len(values))
}

func (mse) TypeString() string {
	return "mse"
}
