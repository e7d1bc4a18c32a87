package vm

import "testing"

func TestEmitterAndRun(t *testing.T) {
	e := NewEmitter()
	regs := []float64{2, 3, 0}

	e.Emit(AP, 2, 0, 1)
	chunk := e.Finish()

	if chunk.Commands[len(chunk.Commands)-1] != End {
		t.Fatalf("chunk did not terminate with End")
	}

	Run(chunk, regs)
	if regs[2] != 6 {
		t.Fatalf("expected regs[2] == 6, got %v", regs[2])
	}
}

func TestActivationLeakyReLU(t *testing.T) {
	if got := Activate(2); got != 2 {
		t.Fatalf("Activate(2) = %v, want 2", got)
	}
	if got := Activate(-2); got != -0.02 {
		t.Fatalf("Activate(-2) = %v, want -0.02", got)
	}
	if got := ActivateDerivative(1); got != 1 {
		t.Fatalf("ActivateDerivative(1) = %v, want 1", got)
	}
	if got := ActivateDerivative(-1); got != leakySlope {
		t.Fatalf("ActivateDerivative(-1) = %v, want %v", got, leakySlope)
	}
}

func TestClip(t *testing.T) {
	e := NewEmitter()
	e.Emit(Clip, 0)
	chunk := e.Finish()

	regs := []float64{5}
	Run(chunk, regs)
	if regs[0] != 1 {
		t.Fatalf("Clip did not clamp to 1: got %v", regs[0])
	}

	regs = []float64{-5}
	Run(chunk, regs)
	if regs[0] != -1 {
		t.Fatalf("Clip did not clamp to -1: got %v", regs[0])
	}
}

func TestValidRejectsOutOfRange(t *testing.T) {
	e := NewEmitter()
	e.Emit(AP, 0, 1, 2)
	chunk := e.Finish()

	if !Valid(chunk, 3) {
		t.Fatalf("expected valid chunk to pass with regCount 3")
	}
	if Valid(chunk, 2) {
		t.Fatalf("expected chunk referencing register 2 to fail with regCount 2")
	}
}

func TestValidRequiresEnd(t *testing.T) {
	chunk := Chunk{Commands: []Opcode{AP}, Indices: []uint32{0, 0, 0}}
	if Valid(chunk, 1) {
		t.Fatalf("expected chunk without trailing End to be invalid")
	}
}

func TestEmitWrongArityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for wrong operand count")
		}
	}()

	NewEmitter().Emit(AP, 0, 1)
}

func TestAppendConcatenatesChunks(t *testing.T) {
	a := NewEmitter()
	a.Emit(Zero, 0)
	ca := a.Finish()

	b := NewEmitter()
	b.Emit(A, 1, 0)
	cb := b.Finish()

	out := NewEmitter().Append(ca).Append(cb).Finish()

	regs := []float64{9, 0}
	Run(out, regs)
	if regs[0] != 0 || regs[1] != 0 {
		t.Fatalf("unexpected register state after appended chunks: %v", regs)
	}
}
