package tinyrnn

import "github.com/sharnoff/tinyrnn/initializers"

// NeuronData holds the mutable, per-neuron parameters the reference
// interpreter reads and writes on every Feed/Train call. It is created
// lazily, on first access, with Bias seeded from the owning Network's RNG.
type NeuronData struct {
	Bias       float64
	Activation float64
	Derivative float64

	State, OldState float64

	ErrorResponsibility float64
	ProjectedActivity   float64
	GatingActivity      float64
}

// ConnectionData holds the mutable, per-connection parameters: Weight
// (seeded from the RNG) and Gain (always 1.0 until some neuron gates the
// connection and starts driving Gain from its own activation).
type ConnectionData struct {
	Weight float64
	Gain   float64
}

// TrainingContext owns every NeuronData and ConnectionData in a Network,
// keyed by ID. It is the reference-interpreter analogue of the register
// file: the unrolled path reads the same current values out of here once,
// at unroll time, to seed its registers.
type TrainingContext struct {
	rng         initializers.RNG
	neurons     map[ID]*NeuronData
	connections map[ID]*ConnectionData
}

func newTrainingContext(rng initializers.RNG) *TrainingContext {
	if rng == nil {
		rng = initializers.Uniform()
	}

	return &TrainingContext{
		rng:         rng,
		neurons:     make(map[ID]*NeuronData),
		connections: make(map[ID]*ConnectionData),
	}
}

// Neuron returns the NeuronData for id, allocating and RNG-seeding it on
// first access.
func (c *TrainingContext) Neuron(id ID) *NeuronData {
	if d, ok := c.neurons[id]; ok {
		return d
	}

	d := &NeuronData{Bias: c.rng.Gen()}
	c.neurons[id] = d
	return d
}

// Connection returns the ConnectionData for id, allocating and RNG-seeding
// it (Weight only; Gain defaults to 1.0) on first access.
func (c *TrainingContext) Connection(id ID) *ConnectionData {
	if d, ok := c.connections[id]; ok {
		return d
	}

	d := &ConnectionData{Weight: c.rng.Gen(), Gain: 1.0}
	c.connections[id] = d
	return d
}
