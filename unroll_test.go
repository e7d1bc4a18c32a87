package tinyrnn

import (
	"math"
	"testing"

	"github.com/sharnoff/tinyrnn/initializers"
	"github.com/sharnoff/tinyrnn/vm"
)

func approxEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestUnrollFeedMatchesInterpreterFeedForward(t *testing.T) {
	top := FeedForward(initializers.Seeded(42), 2, []int{4}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for _, in := range inputs {
		refOut, err := net.Feed(in)
		if err != nil {
			t.Fatalf("interpreter Feed(%v): %v", in, err)
		}
		vmOut, err := unrolled.Feed(in)
		if err != nil {
			t.Fatalf("unrolled Feed(%v): %v", in, err)
		}
		if !approxEqual(refOut, vmOut, 1e-9) {
			t.Fatalf("Feed(%v) diverged: interpreter %v, unrolled %v", in, refOut, vmOut)
		}
	}
}

// TestUnrollFeedTrainMatchesInterpreterOverTraining shares a single
// Network's TrainingContext between both paths, unrolling before the first
// Feed call. Building two separately-seeded Networks would not work here:
// the reference interpreter populates TrainingContext lazily by iterating
// Go's (randomized-order) incoming/outgoing maps, while the unroller visits
// connections in a fixed sorted order (see unroll.go's sortedConns) — two
// Networks seeded from the same RNG would assign different weight values to
// the same connection IDs. Unrolling first makes the unroller the single
// source of every lazy TrainingContext value, so the interpreter's later
// reads (cache hits, no further RNG draws) see exactly what the unrolled
// path already snapshotted into its registers.
func TestUnrollFeedTrainMatchesInterpreterOverTraining(t *testing.T) {
	top := FeedForward(initializers.Seeded(7), 2, []int{4}, 1)
	ref := top.Net
	if err := ref.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := ref.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	const rate = 0.3
	samples := []Datum{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{1}},
		{Inputs: []float64{1, 0}, Targets: []float64{1}},
		{Inputs: []float64{1, 1}, Targets: []float64{0}},
	}

	for step := 0; step < 20; step++ {
		d := samples[step%len(samples)]

		refOut, err := ref.Feed(d.Inputs)
		if err != nil {
			t.Fatalf("interpreter Feed: %v", err)
		}
		vmOut, err := unrolled.Feed(d.Inputs)
		if err != nil {
			t.Fatalf("unrolled Feed: %v", err)
		}
		if !approxEqual(refOut, vmOut, 1e-6) {
			t.Fatalf("step %d: feed diverged before training: interpreter %v, unrolled %v", step, refOut, vmOut)
		}

		if err := ref.Train(rate, d.Targets); err != nil {
			t.Fatalf("interpreter Train: %v", err)
		}
		if err := unrolled.Train(rate, d.Targets); err != nil {
			t.Fatalf("unrolled Train: %v", err)
		}
	}
}

func TestUnrollLSTMFeedMatchesInterpreter(t *testing.T) {
	top := LSTM(initializers.Seeded(3), 1, []int{3}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	for step := 0; step < 10; step++ {
		in := []float64{float64(step % 2)}

		refOut, err := net.Feed(in)
		if err != nil {
			t.Fatalf("interpreter Feed: %v", err)
		}
		vmOut, err := unrolled.Feed(in)
		if err != nil {
			t.Fatalf("unrolled Feed: %v", err)
		}
		if !approxEqual(refOut, vmOut, 1e-6) {
			t.Fatalf("step %d: LSTM feed diverged: interpreter %v, unrolled %v", step, refOut, vmOut)
		}
	}
}

func TestUnrolledKernelsAreValid(t *testing.T) {
	top := LSTM(initializers.Seeded(5), 2, []int{3}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	regCount := unrolled.Context().Len()
	if !vm.Valid(unrolled.FeedKernel(), regCount) {
		t.Fatalf("feed kernel failed vm.Valid")
	}
	if !vm.Valid(unrolled.TrainKernel(), regCount) {
		t.Fatalf("train kernel failed vm.Valid")
	}
}

func TestUnrollRejectsWrongInputSize(t *testing.T) {
	top := FeedForward(initializers.Seeded(1), 2, []int{3}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	if _, err := unrolled.Feed([]float64{1}); err == nil {
		t.Fatalf("expected error feeding wrong-sized input")
	}
}
