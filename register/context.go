package register

// Context is the register allocator: it maps Keys onto indices into a flat
// []float64 register file, and tracks which of those registers play the
// input/output/target/rate roles an UnrolledNetwork needs to find at
// runtime. It is grounded on the allocate_or_reuse/evaluate contract of
// UnrolledTrainingContext.
//
// Registers are append-only during unrolling: once a Key has been seen,
// AllocateOrReuse always returns the same index for it, so bytecode emitted
// against an earlier call remains valid.
type Context struct {
	memory  []float64
	mapping map[Key]int

	inputs, outputs, targets []int
	rate                     int
	hasRate                  bool

	outScratch []float64
}

// NewContext returns an empty register Context.
func NewContext() *Context {
	return &Context{
		mapping: make(map[Key]int),
	}
}

// AllocateOrReuse returns the register index for key, allocating a new
// register seeded with value if key has not been seen before. If key has
// been seen, the existing register is overwritten with value and its index
// is returned — the seed value always reflects the graph model's current
// parameter value at the point the caller emits against this key.
func (c *Context) AllocateOrReuse(value float64, key Key) int {
	if idx, ok := c.mapping[key]; ok {
		c.memory[idx] = value
		return idx
	}

	idx := len(c.memory)
	c.memory = append(c.memory, value)
	c.mapping[key] = idx
	return idx
}

// Evaluate reads back the current value of key's register, or def if key has
// never been allocated.
func (c *Context) Evaluate(key Key, def float64) float64 {
	if idx, ok := c.mapping[key]; ok {
		return c.memory[idx]
	}
	return def
}

// Lookup returns the register index for key and whether it has been
// allocated.
func (c *Context) Lookup(key Key) (int, bool) {
	idx, ok := c.mapping[key]
	return idx, ok
}

// RegisterInput records idx as an input register, in call order.
func (c *Context) RegisterInput(idx int) {
	c.inputs = append(c.inputs, idx)
}

// RegisterOutput records idx as an output register, in call order, and
// resizes the output scratch buffer accordingly.
func (c *Context) RegisterOutput(idx int) {
	c.outputs = append(c.outputs, idx)
	c.outScratch = make([]float64, len(c.outputs))
}

// RegisterTarget records idx as a target register, in call order.
func (c *Context) RegisterTarget(idx int) {
	c.targets = append(c.targets, idx)
}

// RegisterRate records idx as the single learning-rate register. Calling it
// more than once replaces the previous rate register.
func (c *Context) RegisterRate(idx int) {
	c.rate = idx
	c.hasRate = true
}

// Memory returns the live register file. Callers may write into it (e.g. to
// place input samples) but must not resize it.
func (c *Context) Memory() []float64 {
	return c.memory
}

// Len returns the number of allocated registers.
func (c *Context) Len() int {
	return len(c.memory)
}

// Inputs, Outputs, Targets return the register indices registered with the
// matching role, in registration order.
func (c *Context) Inputs() []int  { return c.inputs }
func (c *Context) Outputs() []int { return c.outputs }
func (c *Context) Targets() []int { return c.targets }

// Rate returns the rate register index and whether one has been registered.
func (c *Context) Rate() (int, bool) {
	return c.rate, c.hasRate
}

// OutputScratch returns a reusable buffer sized to len(Outputs()), for
// callers snapshotting output values after a feed pass.
func (c *Context) OutputScratch() []float64 {
	if c.outScratch == nil {
		c.outScratch = make([]float64, len(c.outputs))
	}
	return c.outScratch
}

// SnapshotOutputs copies the current value of every output register into
// OutputScratch and returns it.
func (c *Context) SnapshotOutputs() []float64 {
	buf := c.OutputScratch()
	for i, idx := range c.outputs {
		buf[i] = c.memory[idx]
	}
	return buf
}

// Keys returns every allocated Key, in no particular order.
func (c *Context) Keys() []Key {
	keys := make([]Key, 0, len(c.mapping))
	for k := range c.mapping {
		keys = append(keys, k)
	}
	return keys
}

// Mapping returns a copy of the Key->index allocation table, for
// serialization to write out the VariablesMapping list as (Key, Index)
// pairs.
func (c *Context) Mapping() map[Key]int {
	out := make(map[Key]int, len(c.mapping))
	for k, v := range c.mapping {
		out[k] = v
	}
	return out
}

// LoadFrom replaces the Context's memory and mapping wholesale, for
// deserialization: rebuilding a Context to exactly the state it was in
// when serialized, instead of replaying AllocateOrReuse calls.
func (c *Context) LoadFrom(memory []float64, mapping map[Key]int, inputs, outputs, targets []int, rateIdx int, hasRate bool) {
	c.memory = memory
	c.mapping = mapping
	c.inputs = inputs
	c.outputs = outputs
	c.targets = targets
	c.rate = rateIdx
	c.hasRate = hasRate
	c.outScratch = make([]float64, len(outputs))
}
