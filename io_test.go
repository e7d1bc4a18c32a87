package tinyrnn

import (
	"bytes"
	"testing"

	"github.com/sharnoff/tinyrnn/initializers"
	"github.com/sharnoff/tinyrnn/serialize"
)

func TestSerializeIsByteIdenticalAcrossRuns(t *testing.T) {
	top := LSTM(initializers.Seeded(9), 2, []int{3}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	for step := 0; step < 5; step++ {
		in := []float64{float64(step % 2), float64((step + 1) % 2)}
		if _, err := unrolled.Feed(in); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if err := unrolled.Train(0.1, []float64{1}); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}

	first := serialize.NewJSONTree()
	unrolled.Serialize(first)
	firstBytes, err := first.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON (first): %v", err)
	}

	second := serialize.NewJSONTree()
	unrolled.Serialize(second)
	secondBytes, err := second.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON (second): %v", err)
	}

	if !bytes.Equal(firstBytes, secondBytes) {
		t.Fatalf("two serializations of the same UnrolledNetwork were not byte-identical")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	top := FeedForward(initializers.Seeded(11), 2, []int{3}, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	// Run a few feed/train steps before serializing, so RawMemory captures
	// more than the network's freshly-unrolled initial state.
	for step := 0; step < 3; step++ {
		in := []float64{float64(step % 2), float64((step + 1) % 2)}
		if _, err := unrolled.Feed(in); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if err := unrolled.Train(0.2, []float64{1}); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}

	tree := serialize.NewJSONTree()
	unrolled.Serialize(tree)

	reloaded, err := DeserializeUnrolled(tree)
	if err != nil {
		t.Fatalf("DeserializeUnrolled: %v", err)
	}

	if len(reloaded.FeedKernel().Commands) != len(unrolled.FeedKernel().Commands) {
		t.Fatalf("feed kernel command count mismatch after round trip")
	}
	if len(reloaded.TrainKernel().Commands) != len(unrolled.TrainKernel().Commands) {
		t.Fatalf("train kernel command count mismatch after round trip")
	}
	if reloaded.Context().Len() != unrolled.Context().Len() {
		t.Fatalf("register count mismatch after round trip: got %d, want %d",
			reloaded.Context().Len(), unrolled.Context().Len())
	}

	origMem := unrolled.Context().Memory()
	newMem := reloaded.Context().Memory()
	for i := range origMem {
		if origMem[i] != newMem[i] {
			t.Fatalf("register %d mismatch after round trip: got %v, want %v", i, newMem[i], origMem[i])
		}
	}

	in := []float64{1, 0}
	wantOut, err := unrolled.Feed(in)
	if err != nil {
		t.Fatalf("Feed (original): %v", err)
	}
	gotOut, err := reloaded.Feed(in)
	if err != nil {
		t.Fatalf("Feed (reloaded): %v", err)
	}
	if !approxEqual(wantOut, gotOut, 1e-12) {
		t.Fatalf("Feed after round trip diverged: got %v, want %v", gotOut, wantOut)
	}
}

func TestDeserializeRejectsMissingTree(t *testing.T) {
	tree := serialize.NewJSONTree()
	if _, err := DeserializeUnrolled(tree); err == nil {
		t.Fatalf("expected error deserializing an empty tree")
	}
}

func TestDeserializeRejectsTruncatedMemory(t *testing.T) {
	top := FeedForward(initializers.Seeded(2), 1, nil, 1)
	net := top.Net
	if err := net.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	unrolled, err := net.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}

	tree := serialize.NewJSONTree()
	unrolled.Serialize(tree)

	root, ok := tree.Child("Unrolled")
	if !ok {
		t.Fatalf("expected Unrolled child")
	}
	root.SetInt("MemorySize", unrolled.Context().Len()+1)

	if _, err := DeserializeUnrolled(tree); err == nil {
		t.Fatalf("expected error deserializing a tree with a corrupted MemorySize")
	}
}
