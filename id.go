package tinyrnn

import "go.uber.org/atomic"

// ID identifies a Neuron or a Connection, uniquely within the Network that
// created it. IDs are never reused during a Network's lifetime, even if the
// Neuron or Connection they named is later disconnected — this is what lets
// register.Key treat them as stable map keys.
type ID uint64

// idGen is a per-Network monotonic counter. It is not a package-level
// global: each Network owns one, so two Networks built in the same process
// hand out the same sequence of IDs, which keeps tests reproducible.
type idGen struct {
	next atomic.Uint64
}

func (g *idGen) generate() ID {
	return ID(g.next.Inc() - 1)
}
