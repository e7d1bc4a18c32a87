package tinyrnn

import (
	"github.com/pkg/errors"

	"github.com/sharnoff/tinyrnn/vm"
)

// process runs the forward rule (spec.md §4.2, Eq. 15-16) for a single
// non-input neuron, then updates its eligibility and extended-eligibility
// traces (Eq. 17-18) unless it is a const neuron, then propagates its new
// activation into every connection it gates.
func (n *Neuron) process(net *Network) float64 {
	data := net.ctx.Neuron(n.id)
	data.OldState = data.State

	if n.self != nil {
		selfData := net.ctx.Connection(n.self.id)
		data.State = selfData.Gain*selfData.Weight*data.State + data.Bias
	} else {
		data.State = data.Bias
	}

	for _, c := range n.incoming {
		cd := net.ctx.Connection(c.id)
		inData := net.ctx.Neuron(c.input)
		data.State += inData.Activation * cd.Weight * cd.Gain
	}

	data.Activation = vm.Activate(data.State)
	data.Derivative = vm.ActivateDerivative(data.State)

	if !n.asConst {
		n.updateTraces(net, data)
	}

	for _, c := range n.gated {
		net.ctx.Connection(c.id).Gain = data.Activation
	}

	return data.Activation
}

// updateTraces implements Eq. 17-18: for every neighbour this neuron
// extends traces through, compute its influence, then fold that into each
// incoming connection's eligibility and extended eligibility trace.
func (n *Neuron) updateTraces(net *Network, data *NeuronData) {
	influences := make(map[ID]float64, len(n.extended))
	for neighbourID := range n.extended {
		neighbour := n.neighbours[neighbourID]

		var influence float64
		if neighbour.self != nil && neighbour.self.gate == n.id {
			influence = net.ctx.Neuron(neighbour.id).OldState
		}

		for _, c := range n.influences[neighbourID] {
			cd := net.ctx.Connection(c.id)
			inData := net.ctx.Neuron(c.input)
			influence += cd.Weight * inData.Activation
		}

		influences[neighbourID] = influence
	}

	for _, c := range n.incoming {
		cd := net.ctx.Connection(c.id)
		inData := net.ctx.Neuron(c.input)

		oldElig := n.eligibility[c.id]
		elig := cd.Gain * inData.Activation
		if n.self != nil {
			selfData := net.ctx.Connection(n.self.id)
			elig += selfData.Gain * selfData.Weight * oldElig
		}
		n.eligibility[c.id] = elig

		for neighbourID, xtrace := range n.extended {
			neighbour := n.neighbours[neighbourID]

			oldX := xtrace[c.id]
			x := data.Derivative * elig * influences[neighbourID]
			if neighbour.self != nil {
				nsd := net.ctx.Connection(neighbour.self.id)
				x += nsd.Gain * nsd.Weight * oldX
			}
			xtrace[c.id] = x
		}
	}
}

// trainOutput sets an output neuron's error responsibility directly from
// the training target (Eq. 10) and adjusts its incoming weights and bias.
func (n *Neuron) trainOutput(net *Network, rate, target float64) {
	data := net.ctx.Neuron(n.id)
	data.ErrorResponsibility = target - data.Activation
	data.ProjectedActivity = data.ErrorResponsibility
	n.learn(net, rate)
}

// backPropagate computes a hidden neuron's error responsibility by summing
// the responsibility projected back through its outgoing connections
// (Eq. 21) and the responsibility gated back through every neighbour it
// extends a trace to (Eq. 22-23), then adjusts its weights and bias.
// A neuron with no outgoing connections or no gated connections simply
// contributes zero to the corresponding sum — spec.md's three hidden-neuron
// cases fall out of this one general computation.
func (n *Neuron) backPropagate(net *Network, rate float64) {
	data := net.ctx.Neuron(n.id)

	var errAcc float64
	for _, c := range n.outgoing {
		cd := net.ctx.Connection(c.id)
		outData := net.ctx.Neuron(c.output)
		errAcc += outData.ErrorResponsibility * cd.Gain * cd.Weight
	}
	data.ProjectedActivity = data.Derivative * errAcc

	errAcc = 0
	for neighbourID := range n.extended {
		neighbour := n.neighbours[neighbourID]
		neighbourData := net.ctx.Neuron(neighbour.id)

		var influence float64
		if neighbour.self != nil && neighbour.self.gate == n.id {
			influence = neighbourData.OldState
		}

		for _, c := range n.influences[neighbourID] {
			cd := net.ctx.Connection(c.id)
			inData := net.ctx.Neuron(c.input)
			influence += cd.Weight * inData.Activation
		}

		errAcc += neighbourData.ErrorResponsibility * influence
	}
	data.GatingActivity = data.Derivative * errAcc

	data.ErrorResponsibility = data.ProjectedActivity + data.GatingActivity
	n.learn(net, rate)
}

// learn implements Eq. 24: adjust every incoming connection's weight from
// its eligibility trace and, for each neighbour this neuron extends a trace
// to, that neighbour's extended trace; then adjust the neuron's bias.
// Gradient clipping is applied before every weight update in both this path
// and the unrolled VM's train chunk (see DESIGN.md's open-question
// decision on gradient clipping).
func (n *Neuron) learn(net *Network, rate float64) {
	data := net.ctx.Neuron(n.id)

	for _, c := range n.incoming {
		gradient := data.ProjectedActivity * n.eligibility[c.id]

		for neighbourID, xtrace := range n.extended {
			neighbourData := net.ctx.Neuron(neighbourID)
			gradient += neighbourData.ErrorResponsibility * xtrace[c.id]
		}

		cd := net.ctx.Connection(c.id)
		if net.pen != nil {
			gradient = net.pen.Penalize(cd.Weight, gradient)
		}
		gradient = vm.ClipValue(gradient)

		cd.Weight += net.opt.Run(gradient, rate)
	}

	data.Bias += net.opt.Run(data.ErrorResponsibility, rate)
}

// Feed runs one forward pass. Neurons are processed in the Network's
// creation order, which must be topological for the non-recurrent part of
// the graph (see Network's doc comment). It fails with
// ErrNetworkNotFinalized if Finalize has not been called, or a
// SizeMismatchError if len(inputs) doesn't match the number of input
// neurons.
func (net *Network) Feed(inputs []float64) ([]float64, error) {
	if !net.finalized {
		return nil, net.setError(errors.WithStack(ErrNetworkNotFinalized))
	}
	if len(inputs) != len(net.inputs) {
		return nil, net.setError(SizeMismatchError{Expected: len(net.inputs), Actual: len(inputs), What: "inputs"})
	}

	for i, id := range net.inputs {
		net.ctx.Neuron(id).Activation = inputs[i]
	}

	for _, id := range net.order {
		n := net.neurons[id]
		if n.asInput {
			continue
		}
		n.process(net)
	}

	out := make([]float64, len(net.outputs))
	for i, id := range net.outputs {
		out[i] = net.ctx.Neuron(id).Activation
	}
	return out, nil
}

// Train runs one backward pass at the given rate, using targets in
// Network output order. It must be called immediately after the Feed whose
// activations, derivatives, and traces it trains against (spec.md §5's
// ordering guarantee). It fails with ErrNetworkNotFinalized or a
// SizeMismatchError under the same conditions as Feed.
func (net *Network) Train(rate float64, targets []float64) error {
	if !net.finalized {
		return net.setError(errors.WithStack(ErrNetworkNotFinalized))
	}
	if len(targets) != len(net.outputs) {
		return net.setError(SizeMismatchError{Expected: len(net.outputs), Actual: len(targets), What: "targets"})
	}

	target := make(map[ID]float64, len(net.outputs))
	for i, id := range net.outputs {
		target[id] = targets[i]
	}

	for i := len(net.order) - 1; i >= 0; i-- {
		id := net.order[i]
		n := net.neurons[id]

		if n.asInput || n.asConst {
			continue
		}

		if t, ok := target[id]; ok && n.IsOutput() {
			n.trainOutput(net, rate, t)
			continue
		}

		n.backPropagate(net, rate)
	}

	return nil
}

// Cost reports the Network's configured CostFunction over values and
// targets, both in Network output order.
func (net *Network) Cost(values, targets []float64) float64 {
	return net.cost.Cost(values, targets)
}
