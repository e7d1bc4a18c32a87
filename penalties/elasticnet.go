// Package penalties provides optional weight regularization applied on top
// of the plain-SGD gradient during Network.Train, when a Network has been
// configured WithPenalty. Off by default, so it never changes the numbers
// in spec.md §8's acceptance scenarios unless a caller opts in.
package penalties

import "math"

// Penalty adjusts a raw gradient for a weight, given the weight's current
// value. It composes with, rather than replaces, whatever Optimizer the
// Network is using.
type Penalty interface {
	Penalize(weight, gradient float64) float64
	TypeString() string
}

type elasticNet struct {
	alpha, lambda float64
}

// ElasticNet returns a Penalty blending L1 and L2 regularization: lambda is
// a small positive value controlling regularization strength, alpha in
// [0, 1] controls the L1/L2 mix (alpha=1 is pure L1, alpha=0 is pure L2).
func ElasticNet(alpha, lambda float64) elasticNet {
	return elasticNet{alpha: alpha, lambda: lambda}
}

func (p elasticNet) Penalize(weight, gradient float64) float64 {
	return gradient - p.lambda*((1-p.alpha)*2*weight+p.alpha*math.Copysign(1, weight))
}

func (elasticNet) TypeString() string {
	return "elastic-net"
}
