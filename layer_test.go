package tinyrnn

import (
	"errors"
	"testing"

	"github.com/sharnoff/tinyrnn/initializers"
)

func TestGateAllIncomingRejectsSizeMismatch(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	gaters := net.NewLayer(2)
	target := net.NewLayer(3)

	err := net.GateAllIncoming(gaters, target, nil)
	var mismatch SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SizeMismatchError, got %v", err)
	}
}

func TestConnectOneToOneRejectsSizeMismatch(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	a := net.NewLayer(2)
	b := net.NewLayer(3)

	if _, err := net.ConnectOneToOne(a, b); err == nil {
		t.Fatalf("expected error connecting mismatched layer sizes")
	}
}

func TestConnectAllToAllSkipsSelfPairs(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	l := net.NewLayer(3)

	conns := net.ConnectAllToAll(l, l)
	if len(conns) != 3*3-3 {
		t.Fatalf("expected %d connections (all pairs but self), got %d", 3*3-3, len(conns))
	}
	for _, n := range l.neurons {
		if n.self != nil {
			t.Fatalf("ConnectAllToAll(l, l) must not create self-connections")
		}
	}
}

func TestFeedForwardTopologyShape(t *testing.T) {
	top := FeedForward(initializers.Seeded(1), 3, []int{5, 4}, 2)

	if top.Input.Size() != 3 {
		t.Fatalf("expected 3 input neurons, got %d", top.Input.Size())
	}
	if len(top.Hidden) != 2 || top.Hidden[0].Size() != 5 || top.Hidden[1].Size() != 4 {
		t.Fatalf("unexpected hidden layer shape: %+v", top.Hidden)
	}
	if top.Output.Size() != 2 {
		t.Fatalf("expected 2 output neurons, got %d", top.Output.Size())
	}

	for _, n := range top.Output.neurons {
		if !n.IsOutput() {
			t.Fatalf("output-layer neuron should report IsOutput")
		}
	}

	if err := top.Net.Finalize(); err != nil {
		t.Fatalf("unexpected error finalizing feed-forward network: %v", err)
	}

	out, err := top.Net.Feed([]float64{0.1, -0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error feeding: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(out))
	}
}

func TestLSTMTopologyIsSelfConnectedAndGated(t *testing.T) {
	top := LSTM(initializers.Seeded(1), 1, []int{3}, 1)

	if len(top.Hidden) != 4 {
		t.Fatalf("expected 4 sub-layers (input/forget/memory/output gate) for one LSTM block, got %d", len(top.Hidden))
	}

	memoryCell := top.Hidden[2]
	for _, n := range memoryCell.neurons {
		if n.self == nil {
			t.Fatalf("memory cell neuron should have a self-connection")
		}
		if !n.self.HasGate() {
			t.Fatalf("memory cell's self-connection should be gated by the forget gate")
		}
	}

	if err := top.Net.Finalize(); err != nil {
		t.Fatalf("unexpected error finalizing LSTM network: %v", err)
	}

	out, err := top.Net.Feed([]float64{0.5})
	if err != nil {
		t.Fatalf("unexpected error feeding: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
}
