package tinyrnn

import "github.com/sharnoff/tinyrnn/initializers"

// Layer is a named group of same-size Neurons, used to build feed-forward
// and LSTM topologies with the batch connect/gate operations below instead
// of wiring individual neurons by hand.
type Layer struct {
	net     *Network
	neurons []*Neuron
}

// NewLayer creates size plain hidden neurons and groups them into a Layer.
func (net *Network) NewLayer(size int) *Layer {
	l := &Layer{net: net}
	for i := 0; i < size; i++ {
		l.neurons = append(l.neurons, net.NewNeuron())
	}
	return l
}

// NewInputLayer creates size input neurons and groups them into a Layer.
func (net *Network) NewInputLayer(size int) *Layer {
	l := &Layer{net: net}
	for i := 0; i < size; i++ {
		l.neurons = append(l.neurons, net.NewInput())
	}
	return l
}

// Size returns the number of neurons in the layer.
func (l *Layer) Size() int { return len(l.neurons) }

// Neurons returns a copy of the layer's neuron slice, in construction
// order.
func (l *Layer) Neurons() []*Neuron {
	out := make([]*Neuron, len(l.neurons))
	copy(out, l.neurons)
	return out
}

// SetBias sets every neuron in the layer to the given bias, overriding
// whatever the RNG initialized it to. Used by LSTM to bias gate neurons
// toward +1.
func (l *Layer) SetBias(bias float64) *Layer {
	for _, n := range l.neurons {
		l.net.ctx.Neuron(n.id).Bias = bias
	}
	return l
}

// MarkOutput marks every neuron in the layer as a Network output, in layer
// order.
func (l *Layer) MarkOutput() *Layer {
	for _, n := range l.neurons {
		l.net.MarkOutput(n)
	}
	return l
}

// ConnectAllToAll connects every neuron in a to every neuron in b (skipping
// a==b, which Connect would otherwise treat as a self-connection),
// returning the connections created or reused.
func (net *Network) ConnectAllToAll(a, b *Layer) []*Connection {
	conns := make([]*Connection, 0, len(a.neurons)*len(b.neurons))
	for _, from := range a.neurons {
		for _, to := range b.neurons {
			if from == to {
				continue
			}
			conns = append(conns, net.Connect(from, to))
		}
	}
	return conns
}

// ConnectOneToOne connects a.Neurons()[i] to b.Neurons()[i] for every i. It
// returns a SizeMismatchError (no connections made) if the layers differ in
// size.
func (net *Network) ConnectOneToOne(a, b *Layer) ([]*Connection, error) {
	if a.Size() != b.Size() {
		return nil, net.setError(SizeMismatchError{Expected: a.Size(), Actual: b.Size(), What: "one-to-one connect"})
	}

	conns := make([]*Connection, a.Size())
	for i := range a.neurons {
		conns[i] = net.Connect(a.neurons[i], b.neurons[i])
	}
	return conns, nil
}

func connSet(conns []*Connection) map[ID]bool {
	set := make(map[ID]bool, len(conns))
	for _, c := range conns {
		set[c.id] = true
	}
	return set
}

// GateAllIncoming makes gaters.Neurons()[i] gate every one of
// target.Neurons()[i]'s incoming connections that also appears in restrict.
// It fails with a SizeMismatchError if gaters and target differ in size.
func (net *Network) GateAllIncoming(gaters, target *Layer, restrict []*Connection) error {
	if gaters.Size() != target.Size() {
		return net.setError(SizeMismatchError{Expected: gaters.Size(), Actual: target.Size(), What: "gate-all-incoming"})
	}

	allowed := connSet(restrict)
	for i, t := range target.neurons {
		g := gaters.neurons[i]
		for _, c := range t.incoming {
			if allowed[c.id] {
				net.Gate(g, c)
			}
		}
	}
	return nil
}

// GateAllOutgoing makes gaters.Neurons()[i] gate every one of
// source.Neurons()[i]'s outgoing connections that also appears in restrict.
// It fails with a SizeMismatchError if gaters and source differ in size.
func (net *Network) GateAllOutgoing(gaters, source *Layer, restrict []*Connection) error {
	if gaters.Size() != source.Size() {
		return net.setError(SizeMismatchError{Expected: gaters.Size(), Actual: source.Size(), What: "gate-all-outgoing"})
	}

	allowed := connSet(restrict)
	for i, s := range source.neurons {
		g := gaters.neurons[i]
		for _, c := range s.outgoing {
			if allowed[c.id] {
				net.Gate(g, c)
			}
		}
	}
	return nil
}

// GateSelfLoops makes gaters.Neurons()[i] gate target.Neurons()[i]'s
// self-connection. It fails with a SizeMismatchError if the layers differ in
// size, and silently skips any target neuron without a self-connection.
func (net *Network) GateSelfLoops(gaters, target *Layer) error {
	if gaters.Size() != target.Size() {
		return net.setError(SizeMismatchError{Expected: gaters.Size(), Actual: target.Size(), What: "gate-self-loops"})
	}

	for i, t := range target.neurons {
		if t.self != nil {
			net.Gate(gaters.neurons[i], t.self)
		}
	}
	return nil
}

// Topology bundles a freshly built Network together with the layers a
// prefab constructor (FeedForward, LSTM) wired it from, so callers can Feed
// the input layer and read back the output layer without re-deriving them
// from Network.Neurons().
type Topology struct {
	Net    *Network
	Input  *Layer
	Hidden []*Layer
	Output *Layer
}

// FeedForward builds a fully-connected feed-forward Network: nIn inputs,
// one all-to-all layer per entry of hidden, then nOut outputs, each layer
// connected to the next.
func FeedForward(rng initializers.RNG, nIn int, hidden []int, nOut int) *Topology {
	net := NewNetwork(rng)

	input := net.NewInputLayer(nIn)
	prev := input

	hiddenLayers := make([]*Layer, len(hidden))
	for i, size := range hidden {
		l := net.NewLayer(size)
		net.ConnectAllToAll(prev, l)
		hiddenLayers[i] = l
		prev = l
	}

	output := net.NewLayer(nOut)
	net.ConnectAllToAll(prev, output)
	output.MarkOutput()

	return &Topology{Net: net, Input: input, Hidden: hiddenLayers, Output: output}
}

// LSTM builds an LSTM Network per spec.md §4.1: nIn inputs, one LSTM block
// per entry of hiddenSizes (input-gate/forget-gate/memory-cell/output-gate
// sub-layers, gate biases at +1, peephole and recurrent self-loop wiring),
// then nOut outputs with an input->output shortcut.
func LSTM(rng initializers.RNG, nIn int, hiddenSizes []int, nOut int) *Topology {
	net := NewNetwork(rng)

	input := net.NewInputLayer(nIn)

	var prevMemoryCell *Layer
	hiddenLayers := make([]*Layer, 0, 4*len(hiddenSizes))

	for _, size := range hiddenSizes {
		inputGate := net.NewLayer(size)
		forgetGate := net.NewLayer(size)
		memoryCell := net.NewLayer(size)
		outputGate := net.NewLayer(size)

		inputGate.SetBias(1)
		forgetGate.SetBias(1)
		outputGate.SetBias(1)

		fromInputConns := net.ConnectAllToAll(input, memoryCell)
		fromInputConns = append(fromInputConns, net.ConnectAllToAll(input, inputGate)...)
		fromInputConns = append(fromInputConns, net.ConnectAllToAll(input, forgetGate)...)
		fromInputConns = append(fromInputConns, net.ConnectAllToAll(input, outputGate)...)

		var fromPrevConns []*Connection
		if prevMemoryCell != nil {
			fromPrevConns = net.ConnectAllToAll(prevMemoryCell, memoryCell)
			fromPrevConns = append(fromPrevConns, net.ConnectAllToAll(prevMemoryCell, inputGate)...)
			fromPrevConns = append(fromPrevConns, net.ConnectAllToAll(prevMemoryCell, forgetGate)...)
			fromPrevConns = append(fromPrevConns, net.ConnectAllToAll(prevMemoryCell, outputGate)...)
		}

		net.ConnectOneToOne(memoryCell, memoryCell)
		net.ConnectAllToAll(memoryCell, inputGate)
		net.ConnectAllToAll(memoryCell, forgetGate)
		net.ConnectAllToAll(memoryCell, outputGate)

		memoryCellIncoming := append(append([]*Connection{}, fromInputConns...), fromPrevConns...)
		net.GateAllIncoming(inputGate, memoryCell, memoryCellIncoming)
		net.GateSelfLoops(forgetGate, memoryCell)

		hiddenLayers = append(hiddenLayers, inputGate, forgetGate, memoryCell, outputGate)
		prevMemoryCell = memoryCell
	}

	output := net.NewLayer(nOut)
	for i := 2; i < len(hiddenLayers); i += 4 {
		memoryCell, outputGate := hiddenLayers[i], hiddenLayers[i+1]
		toOutput := net.ConnectAllToAll(memoryCell, output)
		net.GateAllOutgoing(outputGate, memoryCell, toOutput)
	}

	net.ConnectAllToAll(input, output)
	output.MarkOutput()

	return &Topology{Net: net, Input: input, Hidden: hiddenLayers, Output: output}
}
