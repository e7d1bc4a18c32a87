package tinyrnn

import (
	"sort"

	"github.com/sharnoff/tinyrnn/register"
	"github.com/sharnoff/tinyrnn/vm"
)

// sortedConns returns m's connections sorted by id, so that bytecode built
// from the same graph always emits instructions in the same order.
func sortedConns(m map[ID]*Connection) []*Connection {
	out := make([]*Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// sortedNeighbourIDs returns the keys of a neuron's extended/influences map,
// sorted, for the same reason as sortedConns.
func sortedNeighbourIDs(extended map[ID]map[ID]float64) []ID {
	out := make([]ID, 0, len(extended))
	for id := range extended {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// buildNeuronChunks translates one Neuron's forward rule, trace update, and
// backprop rule (spec.md §4.2, Eq. 15-24) into bytecode against reg,
// following original_source/Source/UnrolledNeuron.h::buildFrom opcode for
// opcode. The feed chunk folds in the trace update (spec.md's external
// interface exposes exactly two kernels, FeedKernel and TrainKernel; there
// is no separately serialized trace chunk).
func (net *Network) buildNeuronChunks(reg *register.Context, n *Neuron, asOutput bool) (feed, train vm.Chunk) {
	data := net.ctx.Neuron(n.id)

	rateVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Rate))
	reg.RegisterRate(rateVar)

	activationVar := reg.AllocateOrReuse(data.Activation, register.NeuronKey(uint64(n.id), register.Activation))

	if n.asInput {
		reg.RegisterInput(activationVar)
		return vm.Chunk{}, vm.Chunk{}
	}

	derivativeVar := reg.AllocateOrReuse(data.Derivative, register.NeuronKey(uint64(n.id), register.Derivative))

	feedEm := vm.NewEmitter()
	trainEm := vm.NewEmitter()

	biasVar := reg.AllocateOrReuse(data.Bias, register.NeuronKey(uint64(n.id), register.Bias))
	stateVar := reg.AllocateOrReuse(data.State, register.NeuronKey(uint64(n.id), register.State))
	oldStateVar := reg.AllocateOrReuse(data.OldState, register.NeuronKey(uint64(n.id), register.OldState))

	feedEm.Emit(vm.A, oldStateVar, stateVar)

	var selfWeightVar, selfGainVar int
	selfHasGate := n.self != nil && n.self.hasGate

	if n.self != nil {
		selfData := net.ctx.Connection(n.self.id)
		selfWeightVar = reg.AllocateOrReuse(selfData.Weight, register.ConnectionKey(uint64(n.self.id), register.Weight))

		if selfHasGate {
			selfGainVar = reg.AllocateOrReuse(selfData.Gain, register.ConnectionKey(uint64(n.self.id), register.Gain))
			feedEm.Emit(vm.APPS, stateVar, selfGainVar, selfWeightVar, stateVar, biasVar)
		} else {
			feedEm.Emit(vm.APS, stateVar, selfWeightVar, stateVar, biasVar)
		}
	} else {
		feedEm.Emit(vm.A, stateVar, biasVar)
	}

	incoming := sortedConns(n.incoming)

	for _, c := range incoming {
		cd := net.ctx.Connection(c.id)
		inData := net.ctx.Neuron(c.input)
		inActVar := reg.AllocateOrReuse(inData.Activation, register.NeuronKey(uint64(c.input), register.Activation))
		wVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))

		if c.hasGate {
			gVar := reg.AllocateOrReuse(cd.Gain, register.ConnectionKey(uint64(c.id), register.Gain))
			feedEm.Emit(vm.AAPP, stateVar, inActVar, wVar, gVar)
		} else {
			feedEm.Emit(vm.AAP, stateVar, inActVar, wVar)
		}
	}

	feedEm.Emit(vm.Activation, activationVar, stateVar)
	feedEm.Emit(vm.Derivative, derivativeVar, activationVar)

	if !n.asConst {
		neighbourIDs := sortedNeighbourIDs(n.extended)
		influenceVars := make(map[ID]int, len(neighbourIDs))

		for _, neighbourID := range neighbourIDs {
			neighbour := n.neighbours[neighbourID]
			influenceVar := reg.AllocateOrReuse(0, register.InfluenceKey(uint64(neighbourID)))

			initialized := false
			if neighbour.self != nil && neighbour.self.gate == n.id {
				neighbourOldStateVar := reg.AllocateOrReuse(net.ctx.Neuron(neighbourID).OldState, register.NeuronKey(uint64(neighbourID), register.OldState))
				feedEm.Emit(vm.A, influenceVar, neighbourOldStateVar)
				initialized = true
			}

			for _, ic := range sortedConns(n.influences[neighbourID]) {
				icd := net.ctx.Connection(ic.id)
				icInData := net.ctx.Neuron(ic.input)
				icWVar := reg.AllocateOrReuse(icd.Weight, register.ConnectionKey(uint64(ic.id), register.Weight))
				icActVar := reg.AllocateOrReuse(icInData.Activation, register.NeuronKey(uint64(ic.input), register.Activation))

				if initialized {
					feedEm.Emit(vm.AAP, influenceVar, icWVar, icActVar)
				} else {
					feedEm.Emit(vm.AP, influenceVar, icWVar, icActVar)
					initialized = true
				}
			}

			influenceVars[neighbourID] = influenceVar
		}

		for _, c := range incoming {
			cd := net.ctx.Connection(c.id)
			inData := net.ctx.Neuron(c.input)

			var inGainVar int
			if c.hasGate {
				inGainVar = reg.AllocateOrReuse(cd.Gain, register.ConnectionKey(uint64(c.id), register.Gain))
			}
			inActVar := reg.AllocateOrReuse(inData.Activation, register.NeuronKey(uint64(c.input), register.Activation))
			eligVar := reg.AllocateOrReuse(n.eligibility[c.id], register.EligibilityKey(uint64(n.id), uint64(c.id)))

			switch {
			case n.self != nil && selfHasGate && c.hasGate:
				feedEm.Emit(vm.APPSP, eligVar, selfGainVar, selfWeightVar, eligVar, inGainVar, inActVar)
			case n.self != nil && selfHasGate:
				feedEm.Emit(vm.APPS, eligVar, selfGainVar, selfWeightVar, eligVar, inActVar)
			case n.self != nil && c.hasGate:
				feedEm.Emit(vm.APSP, eligVar, selfWeightVar, eligVar, inGainVar, inActVar)
			case n.self != nil:
				feedEm.Emit(vm.APS, eligVar, selfWeightVar, eligVar, inActVar)
			case c.hasGate:
				feedEm.Emit(vm.AP, eligVar, inGainVar, inActVar)
			default:
				feedEm.Emit(vm.A, eligVar, inActVar)
			}

			for _, neighbourID := range neighbourIDs {
				neighbour := n.neighbours[neighbourID]
				xtrace := n.extended[neighbourID]
				influenceVar := influenceVars[neighbourID]
				extVar := reg.AllocateOrReuse(xtrace[c.id], register.ExtendedTraceKey(uint64(neighbourID), uint64(c.id)))

				if neighbour.self != nil {
					nsd := net.ctx.Connection(neighbour.self.id)
					nsWeightVar := reg.AllocateOrReuse(nsd.Weight, register.ConnectionKey(uint64(neighbour.self.id), register.Weight))

					if neighbour.self.hasGate {
						nsGainVar := reg.AllocateOrReuse(nsd.Gain, register.ConnectionKey(uint64(neighbour.self.id), register.Gain))
						feedEm.Emit(vm.APPSPP, extVar, nsGainVar, nsWeightVar, extVar, derivativeVar, eligVar, influenceVar)
					} else {
						feedEm.Emit(vm.APPSP, extVar, derivativeVar, eligVar, influenceVar, nsWeightVar, extVar)
					}
				} else {
					feedEm.Emit(vm.APP, extVar, derivativeVar, eligVar, influenceVar)
				}
			}
		}
	}

	for _, c := range sortedConns(n.gated) {
		cd := net.ctx.Connection(c.id)
		gainVar := reg.AllocateOrReuse(cd.Gain, register.ConnectionKey(uint64(c.id), register.Gain))
		feedEm.Emit(vm.A, gainVar, activationVar)
	}

	if asOutput && n.asConst {
		reg.RegisterOutput(activationVar)
	}

	if n.asConst {
		return feedEm.Finish(), vm.Chunk{}
	}

	responsibilityVar := reg.AllocateOrReuse(data.ErrorResponsibility, register.NeuronKey(uint64(n.id), register.ErrorResponsibility))
	outgoing := sortedConns(n.outgoing)
	gated := sortedConns(n.gated)
	noOutgoing := len(outgoing) == 0
	noGates := len(gated) == 0

	switch {
	case asOutput:
		targetVar := reg.AllocateOrReuse(0, register.NeuronKey(uint64(n.id), register.Target))
		reg.RegisterTarget(targetVar)
		reg.RegisterOutput(activationVar)

		trainEm.Emit(vm.AD, responsibilityVar, targetVar, activationVar)

		for _, c := range incoming {
			cd := net.ctx.Connection(c.id)
			eligVar := reg.AllocateOrReuse(n.eligibility[c.id], register.EligibilityKey(uint64(n.id), uint64(c.id)))
			wVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))
			gradVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Gradient))
			trainEm.Emit(vm.AP, gradVar, responsibilityVar, eligVar)
			trainEm.Emit(vm.Clip, gradVar)
			trainEm.Emit(vm.AAP, wVar, rateVar, gradVar)
		}

	case !noOutgoing && !noGates:
		net.emitMixedHiddenTrain(reg, trainEm, n, incoming, outgoing, derivativeVar, responsibilityVar, rateVar)

	case noGates:
		net.emitOutgoingOnlyTrain(reg, trainEm, n, incoming, outgoing, derivativeVar, responsibilityVar, rateVar)

	case noOutgoing:
		net.emitGatedOnlyTrain(reg, trainEm, n, incoming, derivativeVar, responsibilityVar, rateVar)
	}

	trainEm.Emit(vm.AAP, biasVar, rateVar, responsibilityVar)

	return feedEm.Finish(), trainEm.Finish()
}

// emitInfluenceAccumulation builds the gated-connection influence value a
// hidden neuron's backprop sums over its extended traces (Eq. 22): the
// gated neighbour's old state (if this neuron gates the neighbour's
// self-loop) plus the weighted activations of every connection this neuron
// gates into the neighbour.
func (net *Network) emitInfluenceAccumulation(reg *register.Context, em *vm.Emitter, n *Neuron, neighbourID ID) int {
	neighbour := n.neighbours[neighbourID]
	influenceTempVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Influence))

	if neighbour.self != nil {
		oldStateVar := reg.AllocateOrReuse(net.ctx.Neuron(neighbourID).OldState, register.NeuronKey(uint64(neighbourID), register.OldState))
		if neighbour.self.gate == n.id {
			em.Emit(vm.A, influenceTempVar, oldStateVar)
		} else {
			em.Emit(vm.Zero, influenceTempVar)
		}
	} else {
		em.Emit(vm.Zero, influenceTempVar)
	}

	if !n.asConst {
		for _, ic := range sortedConns(n.influences[neighbourID]) {
			icd := net.ctx.Connection(ic.id)
			icInData := net.ctx.Neuron(ic.input)
			icActVar := reg.AllocateOrReuse(icInData.Activation, register.NeuronKey(uint64(ic.input), register.Activation))
			icWVar := reg.AllocateOrReuse(icd.Weight, register.ConnectionKey(uint64(ic.id), register.Weight))
			em.Emit(vm.AAP, influenceTempVar, icWVar, icActVar)
		}
	}

	return influenceTempVar
}

// emitMixedHiddenTrain handles a hidden neuron with both outgoing and gated
// connections (Eq. 21-23): responsibility is the sum of a projected term
// (through outgoing connections) and a gated term (through extended
// traces), each independently scaled by the derivative.
func (net *Network) emitMixedHiddenTrain(reg *register.Context, em *vm.Emitter, n *Neuron, incoming, outgoing []*Connection, derivativeVar, responsibilityVar, rateVar int) {
	errAccVar := reg.AllocateOrReuse(0, register.ScratchKey(register.ErrorAccumulator))
	em.Emit(vm.Zero, errAccVar)

	for _, c := range outgoing {
		cd := net.ctx.Connection(c.id)
		outData := net.ctx.Neuron(c.output)
		outWeightVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))
		outRespVar := reg.AllocateOrReuse(outData.ErrorResponsibility, register.NeuronKey(uint64(c.output), register.ErrorResponsibility))

		if c.hasGate {
			outGainVar := reg.AllocateOrReuse(cd.Gain, register.ConnectionKey(uint64(c.id), register.Gain))
			em.Emit(vm.AAPP, errAccVar, outRespVar, outGainVar, outWeightVar)
		} else {
			em.Emit(vm.AAP, errAccVar, outRespVar, outWeightVar)
		}
	}

	data := net.ctx.Neuron(n.id)
	projVar := reg.AllocateOrReuse(data.ProjectedActivity, register.NeuronKey(uint64(n.id), register.ProjectedActivity))
	em.Emit(vm.AP, projVar, derivativeVar, errAccVar)
	em.Emit(vm.Zero, errAccVar)

	neighbourIDs := sortedNeighbourIDs(n.extended)
	for _, neighbourID := range neighbourIDs {
		influenceTempVar := net.emitInfluenceAccumulation(reg, em, n, neighbourID)
		neighbourData := net.ctx.Neuron(neighbourID)
		gatedRespVar := reg.AllocateOrReuse(neighbourData.ErrorResponsibility, register.NeuronKey(uint64(neighbourID), register.ErrorResponsibility))
		em.Emit(vm.AAP, errAccVar, gatedRespVar, influenceTempVar)
	}

	gatedVar := reg.AllocateOrReuse(data.GatingActivity, register.NeuronKey(uint64(n.id), register.GatingActivity))
	em.Emit(vm.AP, gatedVar, derivativeVar, errAccVar)
	em.Emit(vm.AS, responsibilityVar, projVar, gatedVar)

	for _, c := range incoming {
		cd := net.ctx.Connection(c.id)
		gradVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Gradient))
		eligVar := reg.AllocateOrReuse(n.eligibility[c.id], register.EligibilityKey(uint64(n.id), uint64(c.id)))
		em.Emit(vm.AP, gradVar, projVar, eligVar)

		for _, neighbourID := range neighbourIDs {
			xtrace := n.extended[neighbourID]
			neighbourData := net.ctx.Neuron(neighbourID)
			neighbourRespVar := reg.AllocateOrReuse(neighbourData.ErrorResponsibility, register.NeuronKey(uint64(neighbourID), register.ErrorResponsibility))
			extVar := reg.AllocateOrReuse(xtrace[c.id], register.ExtendedTraceKey(uint64(neighbourID), uint64(c.id)))
			em.Emit(vm.AAP, gradVar, neighbourRespVar, extVar)
		}

		wVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))
		em.Emit(vm.Clip, gradVar)
		em.Emit(vm.AAP, wVar, rateVar, gradVar)
	}
}

// emitOutgoingOnlyTrain handles a hidden neuron with outgoing connections
// but no gates (Eq. 21 only): responsibility is the derivative-scaled
// projected term alone.
func (net *Network) emitOutgoingOnlyTrain(reg *register.Context, em *vm.Emitter, n *Neuron, incoming, outgoing []*Connection, derivativeVar, responsibilityVar, rateVar int) {
	em.Emit(vm.Zero, responsibilityVar)

	for _, c := range outgoing {
		cd := net.ctx.Connection(c.id)
		outData := net.ctx.Neuron(c.output)
		outWeightVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))
		outRespVar := reg.AllocateOrReuse(outData.ErrorResponsibility, register.NeuronKey(uint64(c.output), register.ErrorResponsibility))

		if c.hasGate {
			outGainVar := reg.AllocateOrReuse(cd.Gain, register.ConnectionKey(uint64(c.id), register.Gain))
			em.Emit(vm.AAPP, responsibilityVar, outRespVar, outGainVar, outWeightVar)
		} else {
			em.Emit(vm.AAP, responsibilityVar, outRespVar, outWeightVar)
		}
	}

	em.Emit(vm.AP, responsibilityVar, responsibilityVar, derivativeVar)

	for _, c := range incoming {
		cd := net.ctx.Connection(c.id)
		eligVar := reg.AllocateOrReuse(n.eligibility[c.id], register.EligibilityKey(uint64(n.id), uint64(c.id)))
		wVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))

		gradVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Gradient))
		em.Emit(vm.AP, gradVar, responsibilityVar, eligVar)
		em.Emit(vm.Clip, gradVar)
		em.Emit(vm.AAP, wVar, rateVar, gradVar)
	}
}

// emitGatedOnlyTrain handles a hidden neuron with gated connections but no
// outgoing connections (Eq. 22 only): responsibility is the
// derivative-scaled gated term alone.
func (net *Network) emitGatedOnlyTrain(reg *register.Context, em *vm.Emitter, n *Neuron, incoming []*Connection, derivativeVar, responsibilityVar, rateVar int) {
	em.Emit(vm.Zero, responsibilityVar)

	neighbourIDs := sortedNeighbourIDs(n.extended)
	for _, neighbourID := range neighbourIDs {
		influenceTempVar := net.emitInfluenceAccumulation(reg, em, n, neighbourID)
		neighbourData := net.ctx.Neuron(neighbourID)
		gatedRespVar := reg.AllocateOrReuse(neighbourData.ErrorResponsibility, register.NeuronKey(uint64(neighbourID), register.ErrorResponsibility))
		em.Emit(vm.AAP, responsibilityVar, gatedRespVar, influenceTempVar)
	}

	em.Emit(vm.AP, responsibilityVar, responsibilityVar, derivativeVar)

	for _, c := range incoming {
		cd := net.ctx.Connection(c.id)
		gradVar := reg.AllocateOrReuse(0, register.ScratchKey(register.Gradient))
		em.Emit(vm.Zero, gradVar)

		for _, neighbourID := range neighbourIDs {
			xtrace := n.extended[neighbourID]
			neighbourData := net.ctx.Neuron(neighbourID)
			neighbourRespVar := reg.AllocateOrReuse(neighbourData.ErrorResponsibility, register.NeuronKey(uint64(neighbourID), register.ErrorResponsibility))
			extVar := reg.AllocateOrReuse(xtrace[c.id], register.ExtendedTraceKey(uint64(neighbourID), uint64(c.id)))
			em.Emit(vm.AAP, gradVar, neighbourRespVar, extVar)
		}

		wVar := reg.AllocateOrReuse(cd.Weight, register.ConnectionKey(uint64(c.id), register.Weight))
		em.Emit(vm.Clip, gradVar)
		em.Emit(vm.AAP, wVar, rateVar, gradVar)
	}
}
