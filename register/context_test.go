package register

import "testing"

func TestAllocateOrReuseIsAFunction(t *testing.T) {
	c := NewContext()

	k := NeuronKey(7, Bias)
	i1 := c.AllocateOrReuse(0.5, k)
	i2 := c.AllocateOrReuse(0.9, k)

	if i1 != i2 {
		t.Fatalf("same key returned different indices: %d, %d", i1, i2)
	}

	if got := c.Evaluate(k, 0); got != 0.9 {
		t.Fatalf("second AllocateOrReuse should have overwritten the register, got %v", got)
	}

	if c.Len() != 1 {
		t.Fatalf("expected exactly one register allocated, got %d", c.Len())
	}
}

func TestAllocateOrReuseDistinctKeys(t *testing.T) {
	c := NewContext()

	keys := []Key{
		NeuronKey(1, Bias),
		NeuronKey(1, Activation),
		ConnectionKey(2, Weight),
		EligibilityKey(1, 2),
		ExtendedTraceKey(3, 2),
		ScratchKey(ErrorAccumulator),
		ScratchKey(Gradient),
	}

	seen := make(map[int]bool)
	for i, k := range keys {
		idx := c.AllocateOrReuse(float64(i), k)
		if seen[idx] {
			t.Fatalf("distinct key %v reused index %d", k, idx)
		}
		seen[idx] = true
	}

	if c.Len() != len(keys) {
		t.Fatalf("expected %d registers, got %d", len(keys), c.Len())
	}
}

func TestEvaluateDefault(t *testing.T) {
	c := NewContext()
	if got := c.Evaluate(NeuronKey(1, Bias), 42); got != 42 {
		t.Fatalf("expected default value for unallocated key, got %v", got)
	}
}

func TestRegisterRoles(t *testing.T) {
	c := NewContext()

	in := c.AllocateOrReuse(0, NeuronKey(1, Activation))
	out := c.AllocateOrReuse(0, NeuronKey(2, Activation))
	tgt := c.AllocateOrReuse(0, NeuronKey(2, Target))
	rate := c.AllocateOrReuse(0.1, ScratchKey(Rate))

	c.RegisterInput(in)
	c.RegisterOutput(out)
	c.RegisterTarget(tgt)
	c.RegisterRate(rate)

	if len(c.Inputs()) != 1 || c.Inputs()[0] != in {
		t.Fatalf("input registration mismatch: %v", c.Inputs())
	}
	if len(c.Outputs()) != 1 || c.Outputs()[0] != out {
		t.Fatalf("output registration mismatch: %v", c.Outputs())
	}
	if len(c.Targets()) != 1 || c.Targets()[0] != tgt {
		t.Fatalf("target registration mismatch: %v", c.Targets())
	}
	if r, ok := c.Rate(); !ok || r != rate {
		t.Fatalf("rate registration mismatch: %v, %v", r, ok)
	}

	c.Memory()[out] = 1.5
	snap := c.SnapshotOutputs()
	if len(snap) != 1 || snap[0] != 1.5 {
		t.Fatalf("unexpected output snapshot: %v", snap)
	}
}
