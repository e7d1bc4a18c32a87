package tinyrnn

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharnoff/tinyrnn/register"
	"github.com/sharnoff/tinyrnn/serialize"
	"github.com/sharnoff/tinyrnn/vm"
)

// Serialize writes u into ctx using the exact Unrolled::* key layout spec.md
// §6 requires: one child per kernel (Commands/CommandsSize/Indices/
// IndicesSize/EntryPoint/FullSource), the raw register file, and the
// input/output/target/rate/variable mappings needed to rebuild a
// register.Context without replaying a single AllocateOrReuse call.
// Grounded on the teacher's io.go (one Context section per concern, ids as
// keys) and openfluke/loom's nn/serialization.go base64-blob convention —
// JSONTree's Bytes fields already go through encoding/json's base64
// handling, so no explicit encoding is done here.
func (u *UnrolledNetwork) Serialize(ctx serialize.Context) {
	root := ctx.AddChild("Unrolled")

	writeKernel(root, "FeedKernel", "feed", u.feed)
	writeKernel(root, "TrainKernel", "train", u.train)

	mem := u.reg.Memory()
	root.SetBytes("RawMemory", encodeMemory(mem))
	root.SetInt("MemorySize", len(mem))

	writeIndexList(root, "InputsMapping", u.reg.Inputs())
	writeIndexList(root, "OutputsMapping", u.reg.Outputs())
	writeIndexList(root, "TargetsMapping", u.reg.Targets())

	if rateIdx, ok := u.reg.Rate(); ok {
		root.AddChild("RateMapping").SetInt("Index", rateIdx)
	}

	mapping := u.reg.Mapping()
	entries := make([]register.Key, 0, len(mapping))
	for key := range mapping {
		entries = append(entries, key)
	}
	// register.Mapping's iteration order is randomized per call; sort by
	// register index so repeated serializations of the same network are
	// byte-identical.
	sort.Slice(entries, func(i, j int) bool {
		return mapping[entries[i]] < mapping[entries[j]]
	})

	vars := root.AddChild("VariablesMapping")
	for _, key := range entries {
		item := vars.AddItem()
		item.SetInt("KeyA", int(key.A))
		item.SetInt("KeyB", int(key.B))
		item.SetInt("KeyTag", int(key.Tag))
		item.SetInt("Index", mapping[key])
	}
}

// DeserializeUnrolled rebuilds an UnrolledNetwork from a tree previously
// written by (*UnrolledNetwork).Serialize, satisfying Testable Property 2
// (serialize then deserialize reproduces the same kernels and register
// state). It checks RawMemory's length against MemorySize and validates both
// kernels with vm.Valid before returning, so a kernel operand outside the
// register file is rejected here rather than panicking inside vm.Run later.
// The input/output/target/rate and VariablesMapping indices are not
// range-checked.
func DeserializeUnrolled(ctx serialize.Context) (*UnrolledNetwork, error) {
	root, ok := ctx.Child("Unrolled")
	if !ok {
		return nil, errors.New("tinyrnn: missing Unrolled")
	}

	feed, err := readKernel(root, "FeedKernel")
	if err != nil {
		return nil, err
	}
	train, err := readKernel(root, "TrainKernel")
	if err != nil {
		return nil, err
	}

	raw, ok := root.GetBytes("RawMemory")
	if !ok {
		return nil, errors.New("tinyrnn: missing RawMemory")
	}
	size, ok := root.GetInt("MemorySize")
	if !ok {
		return nil, errors.New("tinyrnn: missing MemorySize")
	}
	if len(raw) != 8*size {
		return nil, errors.Errorf("tinyrnn: RawMemory length %d doesn't match MemorySize %d", len(raw), size)
	}
	mem := decodeMemory(raw, size)

	inputs, err := readIndexList(root, "InputsMapping")
	if err != nil {
		return nil, err
	}
	outputs, err := readIndexList(root, "OutputsMapping")
	if err != nil {
		return nil, err
	}
	targets, err := readIndexList(root, "TargetsMapping")
	if err != nil {
		return nil, err
	}

	var rateIdx int
	var hasRate bool
	if rateCtx, ok := root.Child("RateMapping"); ok {
		rateIdx, hasRate = rateCtx.GetInt("Index")
	}

	varsCtx, ok := root.Child("VariablesMapping")
	if !ok {
		return nil, errors.New("tinyrnn: missing VariablesMapping")
	}
	mapping := make(map[register.Key]int)
	for i, item := range varsCtx.Items() {
		a, _ := item.GetInt("KeyA")
		b, _ := item.GetInt("KeyB")
		tag, _ := item.GetInt("KeyTag")
		idx, ok := item.GetInt("Index")
		if !ok {
			return nil, errors.Errorf("tinyrnn: VariablesMapping item %d missing Index", i)
		}
		mapping[register.Key{A: uint64(a), B: uint64(b), Tag: register.Tag(tag)}] = idx
	}

	reg := register.NewContext()
	reg.LoadFrom(mem, mapping, inputs, outputs, targets, rateIdx, hasRate)

	if !vm.Valid(feed, len(mem)) {
		return nil, errors.New("tinyrnn: deserialized feed kernel failed validation")
	}
	if !vm.Valid(train, len(mem)) {
		return nil, errors.New("tinyrnn: deserialized train kernel failed validation")
	}

	return &UnrolledNetwork{reg: reg, feed: feed, train: train}, nil
}

func writeKernel(ctx serialize.Context, key, entryPoint string, chunk vm.Chunk) {
	k := ctx.AddChild(key)

	cmds := encodeCommands(chunk.Commands)
	idx := encodeIndices(chunk.Indices)

	k.SetBytes("Commands", cmds)
	k.SetInt("CommandsSize", len(cmds))
	k.SetBytes("Indices", idx)
	k.SetInt("IndicesSize", len(idx))
	k.SetString("EntryPoint", entryPoint)
	k.SetString("FullSource", disassemble(chunk))
	// GPUKernelSource is the seam for an offload backend that compiles a
	// Chunk to WGSL/SPIR-V instead of interpreting it; no such backend
	// exists in this module, so it is always empty.
	k.SetString("GPUKernelSource", "")
}

func readKernel(ctx serialize.Context, key string) (vm.Chunk, error) {
	k, ok := ctx.Child(key)
	if !ok {
		return vm.Chunk{}, errors.Errorf("tinyrnn: missing %s", key)
	}

	cmds, ok := k.GetBytes("Commands")
	if !ok {
		return vm.Chunk{}, errors.Errorf("tinyrnn: %s missing Commands", key)
	}
	idx, ok := k.GetBytes("Indices")
	if !ok {
		return vm.Chunk{}, errors.Errorf("tinyrnn: %s missing Indices", key)
	}

	return vm.Chunk{Commands: decodeCommands(cmds), Indices: decodeIndices(idx)}, nil
}

func writeIndexList(ctx serialize.Context, key string, indices []int) {
	list := ctx.AddChild(key)
	for _, idx := range indices {
		list.AddItem().SetInt("Index", idx)
	}
}

func readIndexList(ctx serialize.Context, key string) ([]int, error) {
	list, ok := ctx.Child(key)
	if !ok {
		return nil, errors.Errorf("tinyrnn: missing %s", key)
	}

	items := list.Items()
	out := make([]int, len(items))
	for i, item := range items {
		idx, ok := item.GetInt("Index")
		if !ok {
			return nil, errors.Errorf("tinyrnn: %s item %d missing Index", key, i)
		}
		out[i] = idx
	}
	return out, nil
}

func encodeCommands(cmds []vm.Opcode) []byte {
	out := make([]byte, len(cmds))
	for i, c := range cmds {
		out[i] = byte(c)
	}
	return out
}

func decodeCommands(b []byte) []vm.Opcode {
	out := make([]vm.Opcode, len(b))
	for i, c := range b {
		out[i] = vm.Opcode(c)
	}
	return out
}

func encodeIndices(idx []uint32) []byte {
	out := make([]byte, 4*len(idx))
	for i, v := range idx {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func decodeIndices(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func encodeMemory(mem []float64) []byte {
	out := make([]byte, 8*len(mem))
	for i, v := range mem {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func decodeMemory(b []byte, size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

// disassemble renders chunk as one mnemonic-plus-operands line per
// instruction, for FullSource — spec.md §6 lists it as optional, but it
// costs nothing to include and makes a saved network's bytecode readable
// without a separate tool.
func disassemble(chunk vm.Chunk) string {
	var b strings.Builder
	i := 0
	for _, op := range chunk.Commands {
		if op == vm.End {
			b.WriteString("end\n")
			break
		}
		n := vm.Arity(op)
		fmt.Fprintf(&b, "%s", op)
		for k := 0; k < n; k++ {
			fmt.Fprintf(&b, " %d", chunk.Indices[i+k])
		}
		b.WriteString("\n")
		i += n
	}
	return b.String()
}
