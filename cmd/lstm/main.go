// Command lstm trains an LSTM network to echo the input it saw two steps
// ago, exercising the recurrent self-connections and gating wiring LSTM
// builds that the xor example's plain feed-forward topology never touches.
package main

import (
	"fmt"
	"math/rand"

	"github.com/sharnoff/tinyrnn"
	"github.com/sharnoff/tinyrnn/hyperparams"
	"github.com/sharnoff/tinyrnn/initializers"
)

const (
	delay         = 2
	sequenceLen   = 40
	maxIterations = 8000
)

// delayData generates a fresh random 0/1 sequence every sequenceLen
// iterations and trains the network to reproduce the value from delay
// steps back.
type delayData struct {
	r   *rand.Rand
	seq []float64
}

func newDelayData(seed int64) *delayData {
	return &delayData{r: rand.New(rand.NewSource(seed))}
}

func (d *delayData) Get(iter int) (tinyrnn.Datum, error) {
	pos := iter % sequenceLen
	if pos == 0 {
		d.seq = make([]float64, sequenceLen)
		for i := range d.seq {
			d.seq[i] = float64(d.r.Intn(2))
		}
	}

	var target float64
	if pos >= delay {
		target = d.seq[pos-delay]
	}

	return tinyrnn.Datum{Inputs: []float64{d.seq[pos]}, Targets: []float64{target}}, nil
}

func (d *delayData) Done(iter int) bool {
	return false
}

func main() {
	top := tinyrnn.LSTM(initializers.Seeded(7), 1, []int{6}, 1)
	net := top.Net
	net.WithRateSchedule(hyperparams.Step(0.1).Add(4000, 0.02))

	if err := net.Finalize(); err != nil {
		panic(err)
	}

	data := newDelayData(1)
	err := net.RunTraining(tinyrnn.TrainArgs{
		Data:         data,
		RunCondition: func(iter int) bool { return iter < maxIterations },
		Update: func(r tinyrnn.Result) {
			if r.Iteration%1000 == 0 {
				fmt.Printf("iteration %d: cost %.4f\n", r.Iteration, r.Cost)
			}
		},
	})
	if err != nil {
		panic(err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		panic(err)
	}

	fmt.Println("comparing reference interpreter against unrolled bytecode:")
	eval := newDelayData(2)
	for i := 0; i < sequenceLen; i++ {
		d, _ := eval.Get(i)

		refOut, err := net.Feed(d.Inputs)
		if err != nil {
			panic(err)
		}
		vmOut, err := unrolled.Feed(d.Inputs)
		if err != nil {
			panic(err)
		}

		fmt.Printf("  step %2d: input %v target %v  interpreter %v  vm %v\n", i, d.Inputs, d.Targets, refOut, vmOut)
	}
}
