package memcore

import (
	"math/rand"

	"golang.org/x/exp/slices"
)

// BytePlane is one byte-indexed store: concrete bytes fast-pathed through a
// local cache, symbolic bytes deferred into an update list layered over a
// root Array only when something actually needs to see them at a symbolic
// index or through the solver. An ObjectState pairs two of these — one for
// offsets, one for segment tags.
type BytePlane struct {
	littleEndian bool

	sizeBound uint

	// symbolic is true if this plane was built over a named (solver-visible)
	// array rather than a plain concrete buffer.
	symbolic bool

	// initialValue is the fallback byte FlushToConcreteStore writes when the
	// solver cannot be consulted or yields no value for a byte.
	// initializeToZero and initializeToRandom do not use it.
	initialValue uint8

	concrete      []uint8
	concreteMask  []bool
	knownSymbolic []Expr
	unflushedMask []bool

	array *Array
}

// NewConcreteBytePlane returns a plane of size bytes backed by an unnamed
// (non-solver-visible) root array. Contents are undefined until
// initializeToZero/initializeToRandom or a write populates them.
func NewConcreteBytePlane(littleEndian bool, size uint) *BytePlane {
	return &BytePlane{
		littleEndian:  littleEndian,
		sizeBound:     size,
		array:         NewArray(0, size),
		concrete:      make([]uint8, size),
		concreteMask:  make([]bool, size),
		knownSymbolic: make([]Expr, size),
		unflushedMask: make([]bool, size),
	}
}

// NewSymbolicBytePlane returns a plane backed by a named array: the
// contents are initially whatever the solver assigns to that array, with
// no concrete or locally-known-symbolic overrides.
func NewSymbolicBytePlane(littleEndian bool, array *Array) *BytePlane {
	return &BytePlane{
		littleEndian:  littleEndian,
		sizeBound:     array.Size,
		symbolic:      true,
		array:         array,
		concrete:      make([]uint8, array.Size),
		concreteMask:  make([]bool, array.Size),
		knownSymbolic: make([]Expr, array.Size),
		unflushedMask: make([]bool, array.Size),
	}
}

// Clone returns an independent copy of p sharing no mutable backing state,
// safe to hand to a forked execution state as half of a copy-on-write pair.
func (p *BytePlane) Clone() *BytePlane {
	other := &BytePlane{
		littleEndian: p.littleEndian,
		sizeBound:    p.sizeBound,
		symbolic:     p.symbolic,
		initialValue: p.initialValue,
		array:        p.array.Clone(),
	}
	other.concrete = slices.Clone(p.concrete)
	other.concreteMask = slices.Clone(p.concreteMask)
	other.knownSymbolic = slices.Clone(p.knownSymbolic)
	other.unflushedMask = slices.Clone(p.unflushedMask)
	return other
}

func (p *BytePlane) checkBounds(offset uint) {
	assert(offset < p.sizeBound, "memcore.BytePlane: offset %d out of bounds [0,%d)", offset, p.sizeBound)
}

func (p *BytePlane) isByteConcrete(offset uint) bool      { return p.concreteMask[offset] }
func (p *BytePlane) isByteKnownSymbolic(offset uint) bool { return p.knownSymbolic[offset] != nil }
func (p *BytePlane) isByteUnflushed(offset uint) bool     { return p.unflushedMask[offset] }

func (p *BytePlane) markByteConcrete(offset uint, value uint8) {
	p.concreteMask[offset] = true
	p.knownSymbolic[offset] = nil
	p.concrete[offset] = value
}

func (p *BytePlane) markByteSymbolic(offset uint, value Expr) {
	p.concreteMask[offset] = false
	p.knownSymbolic[offset] = value
}

// initializeToZero makes every byte concrete zero and discards any pending
// symbolic updates, resetting the root array to an empty (all-zero) one.
func (p *BytePlane) initializeToZero() {
	for i := uint(0); i < p.sizeBound; i++ {
		p.markByteConcrete(i, 0)
		p.unflushedMask[i] = false
	}
	p.array = NewArray(p.array.ID, p.sizeBound)
	p.symbolic = false
}

// initializeToRandom makes every byte concrete with a pseudo-random value.
func (p *BytePlane) initializeToRandom() {
	for i := uint(0); i < p.sizeBound; i++ {
		p.markByteConcrete(i, uint8(rand.Intn(256)))
		p.unflushedMask[i] = false
	}
	p.array = NewArray(p.array.ID, p.sizeBound)
	p.symbolic = false
}

// write8 writes value, a single byte expression, at a concrete offset.
// Constant values take the fast concrete path; anything else is cached as
// a known-symbolic byte until a symbolic-index access forces a flush.
func (p *BytePlane) write8(offset uint, value Expr) {
	p.checkBounds(offset)
	if ce, ok := value.(*ConstantExpr); ok {
		p.markByteConcrete(offset, uint8(ce.Value))
	} else {
		p.markByteSymbolic(offset, value)
	}
	p.unflushedMask[offset] = true
}

// write8Concrete is the common case of write8 with an already-concrete byte.
func (p *BytePlane) write8Concrete(offset uint, value uint8) {
	p.checkBounds(offset)
	p.markByteConcrete(offset, value)
	p.unflushedMask[offset] = true
}

// write8Symbolic writes at a symbolic offset: the local byte cache can no
// longer say which byte changed, so every pending byte is flushed into the
// root array first and the store becomes an array update going forward.
func (p *BytePlane) write8Symbolic(offset Expr, value Expr) {
	p.flushForWrite()
	p.array = p.array.Store(offset, value, p.littleEndian)
}

// read8 reads a single byte at a concrete offset.
func (p *BytePlane) read8(offset uint) Expr {
	p.checkBounds(offset)
	if p.isByteConcrete(offset) {
		return NewConstantExpr8(uint64(p.concrete[offset]))
	}
	if p.isByteKnownSymbolic(offset) {
		return p.knownSymbolic[offset]
	}
	return p.array.Select(NewConstantExpr64(uint64(offset)), Width8, p.littleEndian)
}

// read8Symbolic reads a single byte at a symbolic offset: any pending
// local knowledge must be visible to the array select first.
func (p *BytePlane) read8Symbolic(offset Expr) Expr {
	p.flushForRead()
	return p.array.Select(offset, Width8, p.littleEndian)
}

// read reads a width-bit value starting at a concrete byte offset,
// assembling it byte by byte in the plane's endianness.
func (p *BytePlane) read(offset uint, width uint) Expr {
	assert(width > 0 && width%8 == 0 || width == WidthBool, "memcore.BytePlane.read: invalid width %d", width)
	if width == WidthBool {
		return NewExtractExpr(p.read8(offset), 0, WidthBool)
	}
	n := width / 8
	var result Expr
	for i := uint(0); i < n; i++ {
		byteOffset := i
		if !p.littleEndian {
			byteOffset = n - i - 1
		}
		value := p.read8(offset + byteOffset)
		if i == 0 {
			result = value
		} else {
			result = NewConcatExpr(value, result)
		}
	}
	return result
}

// readSymbolic reads a width-bit value starting at a symbolic byte offset.
func (p *BytePlane) readSymbolic(offset Expr, width uint) Expr {
	p.flushForRead()
	return p.array.Select(offset, width, p.littleEndian)
}

// write writes a width-bit value at a concrete byte offset, decomposing it
// into bytes in the plane's endianness.
func (p *BytePlane) write(offset uint, width uint, value Expr) {
	if width == WidthBool {
		p.write8(offset, value)
		return
	}
	n := width / 8
	for i := uint(0); i < n; i++ {
		byteOffset := i
		if !p.littleEndian {
			byteOffset = n - i - 1
		}
		p.write8(offset+byteOffset, NewExtractExpr(value, i*8, Width8))
	}
}

// writeSymbolic writes a width-bit value at a symbolic byte offset.
func (p *BytePlane) writeSymbolic(offset Expr, value Expr) {
	p.write8Symbolic(offset, value)
}

// flushForRead pushes every currently-unflushed byte into the root array
// so a symbolic-index select sees it, without discarding the local
// concrete/symbolic knowledge that still makes concrete-index reads fast.
func (p *BytePlane) flushForRead() {
	for i := uint(0); i < p.sizeBound; i++ {
		if !p.unflushedMask[i] {
			continue
		}
		var value Expr
		if p.isByteConcrete(i) {
			value = NewConstantExpr8(uint64(p.concrete[i]))
		} else {
			value = p.knownSymbolic[i]
		}
		p.array.storeByte(NewConstantExpr64(uint64(i)), value)
		p.unflushedMask[i] = false
	}
}

// flushForWrite is flushForRead followed by invalidating local byte
// knowledge: once a symbolic-offset write can land on any byte, the local
// cache can no longer vouch for which one changed, so future accesses must
// go through the root array.
func (p *BytePlane) flushForWrite() {
	p.flushForRead()
	for i := uint(0); i < p.sizeBound; i++ {
		p.concreteMask[i] = false
		p.knownSymbolic[i] = nil
	}
	p.symbolic = true
}

// FlushToConcreteStore resolves every non-concrete byte to a concrete value
// under solver, given the current path condition, and writes the result
// into the local concrete cache. It never aborts: if solver is nil or
// returns a timeout-class error, the remaining bytes fall back to
// initialValue and the error is returned to the caller, leaving the plane
// fully concrete either way.
func (p *BytePlane) FlushToConcreteStore(solver Solver, pathCondition []Expr) error {
	var pending []Expr
	var indices []uint
	for i := uint(0); i < p.sizeBound; i++ {
		if p.isByteConcrete(i) {
			continue
		}
		var value Expr
		if p.isByteKnownSymbolic(i) {
			value = p.knownSymbolic[i]
		} else {
			value = p.array.selectByte(NewConstantExpr64(uint64(i)))
		}
		pending = append(pending, value)
		indices = append(indices, i)
	}
	if len(pending) == 0 {
		return nil
	}

	arrays := FindArrays(pending...)
	if solver == nil || len(arrays) == 0 {
		for _, i := range indices {
			p.markByteConcrete(i, p.initialValue)
		}
		return nil
	}

	satisfiable, values, err := solver.Solve(pathCondition, arrays)
	if err != nil {
		for _, i := range indices {
			p.markByteConcrete(i, p.initialValue)
		}
		return err
	}
	if !satisfiable {
		for _, i := range indices {
			p.markByteConcrete(i, p.initialValue)
		}
		return nil
	}

	evaluator := NewExprEvaluator(arrays, values)
	for k, i := range indices {
		ce, err := evaluator.Evaluate(pending[k])
		if err != nil {
			p.markByteConcrete(i, p.initialValue)
			continue
		}
		p.markByteConcrete(i, uint8(ce.Value))
	}
	return nil
}
