// Package initializers supplies the random-number-generator collaborator
// that spec.md leaves external: TrainingContext uses an RNG to seed neuron
// bias and connection weight from a small range, but never calls math/rand
// itself.
package initializers

import "math/rand"

// RNG generates a single random float64 on each call to Gen. Implementations
// need not be safe for concurrent use; a Network's TrainingContext owns one
// RNG and calls it from a single goroutine during construction.
type RNG interface {
	Gen() float64
}

type uniform struct {
	lower, upper float64
	r            *rand.Rand
}

// Uniform returns an RNG that gives values uniformly spread between its
// bounds, which default to [-1, 1] (spec.md §3's "small uniform random
// range") and can be narrowed or widened with Bounds.
func Uniform() *uniform {
	return &uniform{lower: -1, upper: 1, r: rand.New(rand.NewSource(1))}
}

// Seeded returns a Uniform RNG seeded deterministically, for reproducible
// tests.
func Seeded(seed int64) *uniform {
	u := Uniform()
	u.r = rand.New(rand.NewSource(seed))
	return u
}

// Bounds sets the range of a Uniform RNG, returning it.
func (u *uniform) Bounds(lower, upper float64) *uniform {
	u.lower = lower
	u.upper = upper
	return u
}

// Gen is the implementation of RNG for Uniform. It returns a random number.
func (u *uniform) Gen() float64 {
	return u.r.Float64()*(u.upper-u.lower) + u.lower
}

type normal struct {
	µ, σ float64
	r    *rand.Rand
}

// Normal returns an RNG that gives values within a normal distribution. The
// center and standard deviation default to 0 and 1, and can be set by Mean
// and SD respectively.
func Normal() *normal {
	return &normal{µ: 0, σ: 1, r: rand.New(rand.NewSource(1))}
}

// SD sets the value of the standard deviation of the normal distribution.
func (n *normal) SD(sd float64) *normal {
	n.σ = sd
	return n
}

// Mean sets the center of the normal distribution.
func (n *normal) Mean(mean float64) *normal {
	n.µ = mean
	return n
}

// Gen is the implementation of RNG for Normal. It returns a random number.
func (n *normal) Gen() float64 {
	return n.r.NormFloat64()*n.σ + n.µ
}

type truncNormal struct {
	*normal
	trunc float64
}

const defaultTrunc float64 = 2.0

// TruncNormal returns an RNG that gives values within a truncated normal
// distribution. The distribution is truncated at defaultTrunc standard
// deviations. The center and standard deviation can be set in the same way
// as Normal, because Normal is embedded in the TruncNormal type.
func TruncNormal() *truncNormal {
	return &truncNormal{Normal(), defaultTrunc}
}

// Trunc sets the number of standard deviations to keep on either side.
// Trunc panics if given sds <= 0.
func (t *truncNormal) Trunc(sds float64) *truncNormal {
	if sds <= 0 {
		panic("initializers: Trunc given non-positive standard deviation count")
	}

	t.trunc = sds
	return t
}

// Gen is the implementation of RNG for TruncNormal. It returns a random
// number.
func (t *truncNormal) Gen() float64 {
	for {
		v := t.r.NormFloat64()
		if v < -t.trunc || v > t.trunc {
			continue
		}

		return v*t.σ + t.µ
	}
}
