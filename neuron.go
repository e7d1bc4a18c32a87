package tinyrnn

// Connection is a directed, weighted edge from one Neuron to another,
// optionally scaled at each time-step by a third gating Neuron's
// activation. Connections are owned by their Network; a Connection value
// itself holds only back references (input/output/gate neuron IDs), never
// a strong reference cycle.
type Connection struct {
	id      ID
	input   ID
	output  ID
	gate    ID
	hasGate bool
}

// ID returns the Connection's stable identifier.
func (c *Connection) ID() ID { return c.id }

// HasGate reports whether some neuron currently gates this connection.
func (c *Connection) HasGate() bool { return c.hasGate }

// Neuron is one node of the graph: it tracks its own incoming, outgoing,
// and gated connections, its optional self-connection, and the
// neighbour/influence bookkeeping the trace algorithm (spec.md §3, §4.2)
// needs to assign credit through gated paths.
type Neuron struct {
	id ID

	incoming map[ID]*Connection
	outgoing map[ID]*Connection
	gated    map[ID]*Connection
	self     *Connection

	// neighbours holds every neuron this one extends traces through: either
	// a direct outgoing connection's target, or a neuron this one gates
	// into.
	neighbours map[ID]*Neuron

	// influences[k] holds the connections this neuron gates whose output is
	// neighbour k.
	influences map[ID]map[ID]*Connection

	// eligibility and extended are the reference interpreter's own copy of
	// the trace state; the unrolled path keeps the equivalent values in
	// register.Context instead.
	eligibility map[ID]float64
	extended    map[ID]map[ID]float64

	asInput bool
	asConst bool
}

// ID returns the Neuron's stable identifier.
func (n *Neuron) ID() ID { return n.id }

// IsSelfConnected reports whether this neuron has a self-connection.
func (n *Neuron) IsSelfConnected() bool { return n.self != nil }

// SelfConnection returns the neuron's self-connection, or nil.
func (n *Neuron) SelfConnection() *Connection { return n.self }

// IsOutput reports whether this neuron has no outgoing and no gated
// connections — the condition under which it receives its error directly
// from a training target rather than by backpropagation.
func (n *Neuron) IsOutput() bool {
	return len(n.outgoing) == 0 && len(n.gated) == 0
}

// IsConst reports whether this neuron was marked const at construction: a
// constant or gate-only unit that participates in feed but is excluded from
// trace and train emission (see SPEC_FULL.md's supplemented features).
func (n *Neuron) IsConst() bool { return n.asConst }

// Incoming, Outgoing, Gated return copies of this neuron's connection sets,
// keyed by connection ID.
func (n *Neuron) Incoming() map[ID]*Connection { return copyConns(n.incoming) }
func (n *Neuron) Outgoing() map[ID]*Connection { return copyConns(n.outgoing) }
func (n *Neuron) Gated() map[ID]*Connection    { return copyConns(n.gated) }

func copyConns(m map[ID]*Connection) map[ID]*Connection {
	out := make(map[ID]*Connection, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newNeuron(id ID) *Neuron {
	return &Neuron{
		id:          id,
		incoming:    make(map[ID]*Connection),
		outgoing:    make(map[ID]*Connection),
		gated:       make(map[ID]*Connection),
		neighbours:  make(map[ID]*Neuron),
		influences:  make(map[ID]map[ID]*Connection),
		eligibility: make(map[ID]float64),
		extended:    make(map[ID]map[ID]float64),
	}
}
