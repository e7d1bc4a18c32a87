// Package vm implements the stack-free register machine that executes
// unrolled bytecode. It knows nothing about neurons or connections — only
// opcodes, register indices, and a flat []float64 register file.
package vm

// Opcode identifies one instruction in a Chunk's command stream. Each has a
// fixed operand arity: the number of register indices it consumes from the
// accompanying index stream.
type Opcode uint8

const (
	// Zero: X0 <- 0
	Zero Opcode = iota
	// Clip: X0 <- clamp(X0, -1, 1)
	Clip
	// Activation: X0 <- leakyReLU(X1)
	Activation
	// Derivative: X0 <- leakyReLU'(X1)
	Derivative
	// AAP: X0 <- X0 + X1*X2
	AAP
	// AAPP: X0 <- X0 + X1*X2*X3
	AAPP
	// A: X0 <- X1
	A
	// AS: X0 <- X1+X2
	AS
	// AD: X0 <- X1-X2
	AD
	// AP: X0 <- X1*X2
	AP
	// APP: X0 <- X1*X2*X3
	APP
	// APS: X0 <- X1*X2+X3
	APS
	// APSP: X0 <- X1*X2+X3*X4
	APSP
	// APPS: X0 <- X1*X2*X3+X4
	APPS
	// APPSP: X0 <- X1*X2*X3+X4*X5
	APPSP
	// APPSPP: X0 <- X1*X2*X3+X4*X5*X6
	APPSPP
)

// End stops the VM loop. It is not part of the dense iota block above so
// that inserting a new fused opcode never changes its numeric value.
const End Opcode = 127

// arity is the number of register indices opcode op consumes, including its
// destination register.
var arity = [...]int{
	Zero:       1,
	Clip:       1,
	Activation: 2,
	Derivative: 2,
	AAP:        3,
	AAPP:       4,
	A:          2,
	AS:         3,
	AD:         3,
	AP:         3,
	APP:        4,
	APS:        4,
	APSP:       5,
	APPS:       5,
	APPSP:      6,
	APPSPP:     7,
}

// Arity returns the operand count for op. It panics for End, which has no
// operands and is handled separately by Run.
func Arity(op Opcode) int {
	return arity[op]
}

var opNames = [...]string{
	Zero:       "zero",
	Clip:       "clip",
	Activation: "activation",
	Derivative: "derivative",
	AAP:        "aap",
	AAPP:       "aapp",
	A:          "a",
	AS:         "as",
	AD:         "ad",
	AP:         "ap",
	APP:        "app",
	APS:        "aps",
	APSP:       "apsp",
	APPS:       "apps",
	APPSP:      "appsp",
	APPSPP:     "appspp",
}

func (op Opcode) String() string {
	if op == End {
		return "end"
	}
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "opcode(invalid)"
}
