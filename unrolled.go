package tinyrnn

import (
	"github.com/pkg/errors"

	"github.com/sharnoff/tinyrnn/register"
	"github.com/sharnoff/tinyrnn/vm"
)

// UnrolledNetwork is a Network compiled down to two flat bytecode kernels —
// FeedKernel and TrainKernel — plus the register.Context mapping every
// neuron/connection attribute onto a slot in a single []float64 register
// file. It is the stack-free register-machine analogue of Network: Feed and
// Train run the same rule the reference interpreter runs, but by executing
// pre-built instruction streams against register.Context.Memory() instead of
// walking the graph, matching the EntryPoint/Commands/Indices contract
// spec.md §6 requires of the unrolled path (see UnrolledNeuron::buildFrom in
// original_source for the per-neuron derivation this is built from).
type UnrolledNetwork struct {
	reg *register.Context

	feed  vm.Chunk
	train vm.Chunk
}

// neuronChunks is the (feed, train) bytecode pair emitted for a single
// neuron by buildNeuronChunks, kept around just long enough for Unroll to
// stitch every neuron's pair into the Network's two kernels.
type neuronChunks struct {
	feed, train vm.Chunk
}

// Unroll compiles net into an UnrolledNetwork: one pass over net.order
// builds every neuron's feed and trace-update bytecode (register.Context is
// append-only, so later neurons can freely reference earlier neurons'
// registers), then the feed kernel is assembled in forward order and the
// train kernel in reverse order — the same order Network.Train already
// walks net.order in, since a hidden neuron's responsibility depends on
// every downstream neuron's already-updated responsibility.
func (net *Network) Unroll() (*UnrolledNetwork, error) {
	if !net.finalized {
		return nil, net.setError(errors.WithStack(ErrNetworkNotFinalized))
	}

	reg := register.NewContext()
	outputSet := make(map[ID]bool, len(net.outputs))
	for _, id := range net.outputs {
		outputSet[id] = true
	}

	chunks := make([]neuronChunks, len(net.order))
	for i, id := range net.order {
		n := net.neurons[id]
		isOutput := outputSet[id] && n.IsOutput()
		feed, train := net.buildNeuronChunks(reg, n, isOutput)
		chunks[i] = neuronChunks{feed: feed, train: train}
	}

	feedEm := vm.NewEmitter()
	for _, c := range chunks {
		feedEm.Append(c.feed)
	}

	trainEm := vm.NewEmitter()
	for i := len(chunks) - 1; i >= 0; i-- {
		trainEm.Append(chunks[i].train)
	}

	return &UnrolledNetwork{
		reg:   reg,
		feed:  feedEm.Finish(),
		train: trainEm.Finish(),
	}, nil
}

// Context returns the UnrolledNetwork's register.Context, for persistence.
func (u *UnrolledNetwork) Context() *register.Context { return u.reg }

// FeedKernel, TrainKernel return the compiled bytecode chunks, for
// persistence and for Testable Property 4 (every command ends with End,
// every operand is in range).
func (u *UnrolledNetwork) FeedKernel() vm.Chunk  { return u.feed }
func (u *UnrolledNetwork) TrainKernel() vm.Chunk { return u.train }

// Feed runs the feed kernel once against the register file, after writing
// inputs into their registered input slots, and returns a snapshot of the
// output registers in registration order. It fails with a SizeMismatchError
// rather than running the kernel if inputs has the wrong length — an
// unrolled network never partially feeds (spec.md §7).
func (u *UnrolledNetwork) Feed(inputs []float64) ([]float64, error) {
	ins := u.reg.Inputs()
	if len(inputs) != len(ins) {
		return nil, SizeMismatchError{Expected: len(ins), Actual: len(inputs), What: "inputs"}
	}

	mem := u.reg.Memory()
	for i, idx := range ins {
		mem[idx] = inputs[i]
	}

	vm.Run(u.feed, mem)

	return u.reg.SnapshotOutputs(), nil
}

// Train runs the train kernel once against the register file, after writing
// rate and targets into their registered slots. It must be called
// immediately after the Feed whose activations and traces it trains
// against, matching Network.Train's contract. It fails with a
// SizeMismatchError if targets has the wrong length. If the register.Context
// has no rate register, rate is not written anywhere.
func (u *UnrolledNetwork) Train(rate float64, targets []float64) error {
	tgts := u.reg.Targets()
	if len(targets) != len(tgts) {
		return SizeMismatchError{Expected: len(tgts), Actual: len(targets), What: "targets"}
	}

	mem := u.reg.Memory()

	if rateIdx, ok := u.reg.Rate(); ok {
		mem[rateIdx] = rate
	}

	for i, idx := range tgts {
		mem[idx] = targets[i]
	}

	vm.Run(u.train, mem)

	return nil
}
