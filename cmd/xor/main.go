// Command xor trains a small feed-forward network on the XOR problem with the
// reference interpreter, then unrolls it to bytecode and prints the
// interpreter's outputs, the unrolled path's outputs, and the outputs of the
// unrolled network after a serialize/deserialize round trip, for comparison
// by eye.
package main

import (
	"fmt"

	"github.com/sharnoff/tinyrnn"
	"github.com/sharnoff/tinyrnn/hyperparams"
	"github.com/sharnoff/tinyrnn/initializers"
	"github.com/sharnoff/tinyrnn/serialize"
)

type xorData struct{}

var xorSamples = []tinyrnn.Datum{
	{Inputs: []float64{0, 0}, Targets: []float64{0}},
	{Inputs: []float64{0, 1}, Targets: []float64{1}},
	{Inputs: []float64{1, 0}, Targets: []float64{1}},
	{Inputs: []float64{1, 1}, Targets: []float64{0}},
}

func (d *xorData) Get(iter int) (tinyrnn.Datum, error) {
	return xorSamples[iter%len(xorSamples)], nil
}

func (d *xorData) Done(iter int) bool {
	return false
}

const maxIterations = 3000

func main() {
	top := tinyrnn.FeedForward(initializers.Seeded(1), 2, []int{4}, 1)
	net := top.Net
	net.WithRateSchedule(hyperparams.Constant(0.5))

	if err := net.Finalize(); err != nil {
		panic(err)
	}

	err := net.RunTraining(tinyrnn.TrainArgs{
		Data:         &xorData{},
		RunCondition: func(iter int) bool { return iter < maxIterations },
		Update: func(r tinyrnn.Result) {
			if r.Iteration%500 == 0 {
				fmt.Printf("iteration %d: cost %.4f\n", r.Iteration, r.Cost)
			}
		},
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("reference interpreter:")
	for _, d := range xorSamples {
		out, err := net.Feed(d.Inputs)
		if err != nil {
			panic(err)
		}
		fmt.Printf("  %v -> %v (want %v)\n", d.Inputs, out, d.Targets)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		panic(err)
	}

	fmt.Println("unrolled bytecode:")
	for _, d := range xorSamples {
		out, err := unrolled.Feed(d.Inputs)
		if err != nil {
			panic(err)
		}
		fmt.Printf("  %v -> %v (want %v)\n", d.Inputs, out, d.Targets)
	}

	tree := serialize.NewJSONTree()
	unrolled.Serialize(tree)

	reloaded, err := tinyrnn.DeserializeUnrolled(tree)
	if err != nil {
		panic(err)
	}

	fmt.Println("reloaded from serialized tree:")
	for _, d := range xorSamples {
		out, err := reloaded.Feed(d.Inputs)
		if err != nil {
			panic(err)
		}
		fmt.Printf("  %v -> %v (want %v)\n", d.Inputs, out, d.Targets)
	}
}
