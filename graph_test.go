package tinyrnn

import (
	"errors"
	"testing"

	"github.com/sharnoff/tinyrnn/initializers"
)

func TestConnectIsIdempotent(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	a := net.NewInput()
	b := net.NewNeuron()

	c1 := net.Connect(a, b)
	c2 := net.Connect(a, b)

	if c1 != c2 {
		t.Fatalf("Connect(a, b) called twice returned distinct connections: %v, %v", c1, c2)
	}
	if len(a.outgoing) != 1 {
		t.Fatalf("expected exactly one outgoing connection from a, got %d", len(a.outgoing))
	}
	if len(b.incoming) != 1 {
		t.Fatalf("expected exactly one incoming connection into b, got %d", len(b.incoming))
	}
}

func TestConnectSelfIsIdempotent(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	a := net.NewNeuron()

	c1 := net.Connect(a, a)
	c2 := net.Connect(a, a)

	if c1 != c2 {
		t.Fatalf("Connect(a, a) called twice returned distinct connections: %v, %v", c1, c2)
	}
	if a.self != c1 {
		t.Fatalf("self-connection not recorded on neuron")
	}
}

func TestGateReplacesExistingGate(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	a := net.NewInput()
	b := net.NewNeuron()
	g1 := net.NewNeuron()
	g2 := net.NewNeuron()

	c := net.Connect(a, b)
	net.Gate(g1, c)
	if !c.HasGate() || c.gate != g1.id {
		t.Fatalf("expected c to be gated by g1")
	}

	net.Gate(g2, c)
	if c.gate != g2.id {
		t.Fatalf("expected re-gating to replace the gate neuron, got gate id %v", c.gate)
	}

	if _, ok := g1.gated[c.id]; ok {
		t.Fatalf("re-gating should remove the connection from g1's gated set")
	}
	if len(g2.gated) != 1 {
		t.Fatalf("expected g2.gated to contain exactly the re-gated connection, got %d", len(g2.gated))
	}
}

func TestFinalizeRequiresOutputs(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	net.NewInput()

	if err := net.Finalize(); !errors.Is(err, ErrNoOutputs) {
		t.Fatalf("expected ErrNoOutputs, got %v", err)
	}
}

func TestFinalizeRequiresNodes(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	if err := net.Finalize(); !errors.Is(err, ErrNoNodes) {
		t.Fatalf("expected ErrNoNodes, got %v", err)
	}
}

func TestFinalizeTwiceFails(t *testing.T) {
	net := NewNetwork(initializers.Seeded(1))
	n := net.NewInput()
	net.MarkOutput(n)

	if err := net.Finalize(); err != nil {
		t.Fatalf("unexpected error on first Finalize: %v", err)
	}
	if err := net.Finalize(); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
}
