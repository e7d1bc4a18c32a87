// Package register implements the allocator that turns the graph model's
// dynamic (neuron, connection, attribute) parameters into a dense, flat
// register file a bytecode program can address by integer index.
package register

// Tag names one of the closed set of attributes a register can hold. The
// enumeration matches the training-context fields a neuron or connection
// carries: most tags key off a single id (a neuron or a connection), a few
// key off a pair of ids (ExtendedTrace keys off a neighbour and an incoming
// connection), and a few are scratch registers shared across every neuron
// rather than allocated per id — see ScratchKey.
type Tag uint8

const (
	Rate Tag = iota
	Activation
	Derivative
	Bias
	State
	OldState
	Weight
	Gain
	Influence
	Eligibility
	ExtendedTrace
	ErrorResponsibility
	ProjectedActivity
	GatingActivity
	Target
	ErrorAccumulator
	Gradient
	numTags
)

var tagNames = [numTags]string{
	Rate:                "rate",
	Activation:          "activation",
	Derivative:          "derivative",
	Bias:                "bias",
	State:               "state",
	OldState:            "old-state",
	Weight:              "weight",
	Gain:                "gain",
	Influence:           "influence",
	Eligibility:         "eligibility",
	ExtendedTrace:       "extended-trace",
	ErrorResponsibility: "error-responsibility",
	ProjectedActivity:   "projected-activity",
	GatingActivity:      "gating-activity",
	Target:              "target",
	ErrorAccumulator:    "error-accumulator",
	Gradient:            "gradient",
}

func (t Tag) String() string {
	if t >= numTags {
		return "tag(invalid)"
	}
	return tagNames[t]
}

// Key identifies a single register slot. A and B are graph ids; most tags
// only use A (a neuron id or a connection id). ExtendedTrace uses both: A is
// the neighbour neuron id, B is the incoming connection id being traced
// through to that neighbour. A zero-valued Key{Tag: t} with A==B==0 is a
// scratch key, shared by every caller regardless of which neuron or
// connection is being processed — see ScratchKey.
type Key struct {
	A, B uint64
	Tag  Tag
}

// NeuronKey identifies a per-neuron attribute register.
func NeuronKey(id uint64, tag Tag) Key {
	return Key{A: id, Tag: tag}
}

// ConnectionKey identifies a per-connection attribute register.
func ConnectionKey(id uint64, tag Tag) Key {
	return Key{A: id, Tag: tag}
}

// EligibilityKey identifies a per-(neuron, incoming connection) eligibility
// trace register.
func EligibilityKey(neuronID, connID uint64) Key {
	return Key{A: neuronID, B: connID, Tag: Eligibility}
}

// ExtendedTraceKey identifies a per-(neighbour, incoming connection)
// extended eligibility trace register, owned by the neuron doing the
// gating.
func ExtendedTraceKey(neighbourID, connID uint64) Key {
	return Key{A: neighbourID, B: connID, Tag: ExtendedTrace}
}

// InfluenceKey identifies the per-neighbour influence register a gating
// neuron accumulates while computing its trace update.
func InfluenceKey(neighbourID uint64) Key {
	return Key{A: neighbourID, Tag: Influence}
}

// ScratchKey returns a tag-only register shared by every neuron that needs
// it, rather than one allocated per id. The original TinyRNN implementation
// keys ErrorAccumulator, Gradient, and some uses of Influence this way —
// reused scratch space for a value that only needs to live across a handful
// of consecutive instructions within one neuron's chunk, never across
// neurons. See SPEC_FULL.md's supplemented-features section.
func ScratchKey(tag Tag) Key {
	return Key{Tag: tag}
}
