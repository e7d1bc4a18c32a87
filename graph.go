package tinyrnn

import (
	"github.com/pkg/errors"

	"github.com/sharnoff/tinyrnn/costfuncs"
	"github.com/sharnoff/tinyrnn/hyperparams"
	"github.com/sharnoff/tinyrnn/initializers"
	"github.com/sharnoff/tinyrnn/optimizers"
	"github.com/sharnoff/tinyrnn/penalties"
)

// Network owns a set of Neurons and Connections plus the TrainingContext
// backing their mutable parameters. Neurons are added with NewNeuron
// (usually indirectly, through a Layer) and wired with Connect/Gate; once
// the topology is complete, Finalize locks in the input/output/target
// register roles that Feed and Train rely on.
//
// A Network's neurons must be created in the order layers of a feed-forward
// or LSTM topology would naturally be built: input layer first, hidden
// layers in forward order, output layer last. Both the reference
// interpreter and the unroller process neurons in this creation order
// (forward) or its reverse (backward); recurrent and self-connections read
// the values the previous pass left in place (a neuron's own State, or a
// later neuron's Activation), so they never violate this ordering even
// though the topology itself has cycles.
type Network struct {
	ids idGen
	ctx *TrainingContext

	neurons map[ID]*Neuron
	order   []ID

	inputs  []ID
	outputs []ID

	finalized   bool
	panicErrors bool
	err         error

	cost costfuncs.CostFunction
	opt  optimizers.Optimizer
	pen  penalties.Penalty
	rate hyperparams.Schedule
	iter int
}

// NewNetwork returns an empty Network. rng seeds every neuron bias and
// connection weight as they are created; passing nil uses initializers.
// Uniform's default range.
func NewNetwork(rng initializers.RNG) *Network {
	return &Network{
		ctx:     newTrainingContext(rng),
		neurons: make(map[ID]*Neuron),
		cost:    costfuncs.MSE(),
		opt:     optimizers.SGD(),
		rate:    hyperparams.Constant(0.1),
	}
}

// PanicOnError puts the Network into panic-on-error mode: subsequent
// operations that would return an error panic with it instead. Returns the
// Network for chaining.
func (net *Network) PanicOnError() *Network {
	net.panicErrors = true
	return net
}

// WithCostFunction sets the CostFunction used by Network.Cost. Returns the
// Network for chaining.
func (net *Network) WithCostFunction(cf costfuncs.CostFunction) *Network {
	net.cost = cf
	return net
}

// WithOptimizer sets the Optimizer used to turn a gradient into a weight
// delta. Returns the Network for chaining.
func (net *Network) WithOptimizer(opt optimizers.Optimizer) *Network {
	net.opt = opt
	return net
}

// WithPenalty sets an optional regularization Penalty, applied to every
// gradient during Train. A nil Penalty (the default) disables
// regularization. Returns the Network for chaining.
func (net *Network) WithPenalty(pen penalties.Penalty) *Network {
	net.pen = pen
	return net
}

// WithRateSchedule sets the learning-rate Schedule used by Network.Train's
// outer loop. Returns the Network for chaining.
func (net *Network) WithRateSchedule(s hyperparams.Schedule) *Network {
	net.rate = s
	return net
}

func (net *Network) setError(err error) error {
	net.err = err
	if net.panicErrors {
		panic(err)
	}
	return err
}

// Context returns the Network's TrainingContext, for persistence or direct
// inspection.
func (net *Network) Context() *TrainingContext { return net.ctx }

// Finalized reports whether Finalize has been called.
func (net *Network) Finalized() bool { return net.finalized }

// NewNeuron creates and registers a plain hidden neuron, returning it.
func (net *Network) NewNeuron() *Neuron {
	return net.newNeuron(false, false)
}

// NewInput creates and registers an input neuron: one with no incoming
// connections, whose activation register is fed directly from caller
// input.
func (net *Network) NewInput() *Neuron {
	return net.newNeuron(true, false)
}

// NewConst creates and registers a constant/gate-only neuron: it
// participates in feed and (if gating something) contributes gain updates,
// but is excluded from trace and train emission. See SPEC_FULL.md's
// supplemented features.
func (net *Network) NewConst() *Neuron {
	return net.newNeuron(false, true)
}

func (net *Network) newNeuron(asInput, asConst bool) *Neuron {
	id := net.ids.generate()
	n := newNeuron(id)
	n.asInput = asInput
	n.asConst = asConst
	net.neurons[id] = n
	net.order = append(net.order, id)

	if asInput {
		net.inputs = append(net.inputs, id)
	}

	return n
}

// MarkOutput records n as one of the Network's output neurons, in the order
// Feed should return values. It does not change n's connections; a neuron
// with outgoing or gated connections can still be marked an output, though
// the usual case is a neuron with neither (see Neuron.IsOutput).
func (net *Network) MarkOutput(n *Neuron) {
	net.outputs = append(net.outputs, n.id)
}

// Connect creates a directed connection from a to b, or returns the
// existing one. Connecting a neuron to itself creates or returns its
// self-connection. Connecting the same (a, b) pair more than once always
// returns the same Connection (Testable Property 5).
func (net *Network) Connect(a, b *Neuron) *Connection {
	if a == b {
		if a.self == nil {
			c := &Connection{id: net.ids.generate(), input: a.id, output: a.id}
			a.self = c
		}
		return a.self
	}

	for _, c := range a.outgoing {
		if c.output == b.id {
			return c
		}
	}

	c := &Connection{id: net.ids.generate(), input: a.id, output: b.id}
	a.outgoing[c.id] = c
	a.neighbours[b.id] = b

	b.incoming[c.id] = c
	b.eligibility[c.id] = 0

	for _, xtrace := range b.extended {
		xtrace[c.id] = 0
	}

	return c
}

// Gate makes g the gate neuron of connection c, replacing any existing
// gate. Re-gating an already-gated connection is allowed (spec.md §4.1).
func (net *Network) Gate(g *Neuron, c *Connection) {
	if c.hasGate {
		if old, ok := net.neurons[c.gate]; ok {
			delete(old.gated, c.id)
			if infl, ok := old.influences[c.output]; ok {
				delete(infl, c.id)
			}
		}
	}

	g.gated[c.id] = c
	c.gate = g.id
	c.hasGate = true

	target := net.neurons[c.output]

	if _, ok := g.extended[target.id]; !ok {
		g.neighbours[target.id] = target

		xtrace := make(map[ID]float64, len(g.incoming))
		for cid := range g.incoming {
			xtrace[cid] = 0
		}
		g.extended[target.id] = xtrace
	}

	if _, ok := g.influences[target.id]; !ok {
		g.influences[target.id] = make(map[ID]*Connection)
	}
	g.influences[target.id][c.id] = c
}

// Neurons returns every Neuron in creation order.
func (net *Network) Neurons() []*Neuron {
	out := make([]*Neuron, len(net.order))
	for i, id := range net.order {
		out[i] = net.neurons[id]
	}
	return out
}

// Neuron looks up a Neuron by ID.
func (net *Network) Neuron(id ID) (*Neuron, bool) {
	n, ok := net.neurons[id]
	return n, ok
}

// Finalize locks in the Network's input and output roles. It fails with
// ErrAlreadyFinalized if called twice, ErrNoNodes if the Network has no
// neurons, and ErrNoOutputs if no neuron has been marked an output.
func (net *Network) Finalize() error {
	if net.finalized {
		return net.setError(errors.WithStack(ErrAlreadyFinalized))
	}
	if len(net.neurons) == 0 {
		return net.setError(errors.WithStack(ErrNoNodes))
	}
	if len(net.outputs) == 0 {
		return net.setError(errors.WithStack(ErrNoOutputs))
	}

	net.finalized = true
	return nil
}
