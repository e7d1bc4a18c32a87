// Package tinyrnn builds, trains, and evaluates recurrent neural networks —
// including LSTM — by unrolling a symbolic neuron graph into a register-
// machine bytecode program, then running that program on a flat numeric
// register file for both inference ("feed") and learning ("train").
//
// This package holds the dynamic side of that system: Neurons, Connections,
// Layers, and Network, plus a reference interpreter that walks the graph
// directly (no bytecode involved) for correctness comparisons against the
// compiled path. The compiled path is built from the sibling packages
// register and vm plus this package's unroller:
//
//   - register holds the UnrolledTrainingContext, the allocator that maps a
//     (neuron, connection, attribute) key onto a dense register index.
//   - vm holds the opcode set and the interpreter that runs over a flat
//     []float64 register file.
//   - Network.Unroll is the one-time pass that walks a Network's topology
//     and emits vm bytecode against a register.Context.
//
// A Network is built by adding Neurons and Layers, connecting and gating
// them, and finally calling Finalize. After that it can either be run
// directly (Network.Feed / Network.Train, the reference interpreter) or
// compiled once with Network.Unroll into an UnrolledNetwork for the register
// machine. The reference interpreter reads and writes the TrainingContext;
// the UnrolledNetwork seeds its registers from the TrainingContext at unroll
// time and from then on reads and writes only its own register file. Run
// from the same state, the two paths agree within floating-point tolerance.
package tinyrnn
