package tinyrnn

import (
	"math"
	"sort"
)

// CorrectRound reports whether every value in outs rounds to the matching
// value in targets, via a smoothed round (tanh-compressed to (0, 1) before
// rounding); the result is the same as a threshold at 0.5, with 0.5 itself
// rounding to 1. Meant for networks trained against binary targets.
func CorrectRound(outs, targets []float64) bool {
	for i := range outs {
		if math.Round(0.5*(1+math.Tanh(outs[i]-0.5))) != targets[i] {
			return false
		}
	}
	return true
}

type sortableFloats struct {
	values  []float64
	indexes []int
}

func (s sortableFloats) Len() int      { return len(s.values) }
func (s sortableFloats) Less(i, j int) bool { return s.values[i] > s.values[j] }
func (s sortableFloats) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.indexes[i], s.indexes[j] = s.indexes[j], s.indexes[i]
}

// CorrectHighest reports whether outs and targets agree on which index holds
// the largest value. Meant for one-hot classification targets.
func CorrectHighest(outs, targets []float64) bool {
	outIdx := make([]int, len(outs))
	targetIdx := make([]int, len(targets))
	for i := range outIdx {
		outIdx[i] = i
		targetIdx[i] = i
	}

	sort.Sort(sortableFloats{outs, outIdx})
	sort.Sort(sortableFloats{targets, targetIdx})

	return outIdx[0] == targetIdx[0]
}
