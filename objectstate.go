package memcore

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectState pairs two BytePlanes under one MemoryObject: an
// always-present offset-plane and a segment-plane allocated lazily, the
// first time something writes a non-zero segment into the object. Most
// allocations never hold a pointer, so most ObjectStates never pay for a
// second plane.
type ObjectState struct {
	object *MemoryObject

	// ReadOnly rejects writes with ErrReadOnly; set for global constants.
	ReadOnly bool

	offsetPlane  *BytePlane
	segmentPlane *BytePlane

	littleEndian bool

	// copyOnWriteOwner tags which address space last wrote through this
	// ObjectState without cloning it first — exclusively for the address
	// space's copy-on-write bookkeeping, opaque to everyone else.
	copyOnWriteOwner uuid.UUID
}

// CopyOnWriteOwner returns the owner tag set by the last SetCopyOnWriteOwner
// call, for an address space to compare against its own identity.
func (os *ObjectState) CopyOnWriteOwner() uuid.UUID { return os.copyOnWriteOwner }

// SetCopyOnWriteOwner tags os as owned by owner. Exclusively for an
// address space's copy-on-write bookkeeping.
func (os *ObjectState) SetCopyOnWriteOwner(owner uuid.UUID) { os.copyOnWriteOwner = owner }

// NewObjectState returns a concrete-contents ObjectState for mo. Contents
// are undefined until initializeToZero/initializeToRandom or a write.
func NewObjectState(ctx *Context, mo *MemoryObject) *ObjectState {
	size := concreteObjectSize(mo)
	return &ObjectState{
		object:       mo,
		littleEndian: ctx.LittleEndian,
		offsetPlane:  NewConcreteBytePlane(ctx.LittleEndian, size),
	}
}

// NewSymbolicObjectState returns an ObjectState for mo whose offset-plane
// is backed by the given array, for fully-symbolic allocations. If array
// has no name of its own, it is tagged with mo's allocation identity so a
// solver binding can report which allocation a witness value belongs to.
func NewSymbolicObjectState(ctx *Context, mo *MemoryObject, array *Array) *ObjectState {
	if array.Name == "" {
		array.Name = fmt.Sprintf("MO%d.off", mo.ID)
	}
	return &ObjectState{
		object:       mo,
		littleEndian: ctx.LittleEndian,
		offsetPlane:  NewSymbolicBytePlane(ctx.LittleEndian, array),
	}
}

// concreteObjectSize resolves a MemoryObject's size to a byte count usable
// as a plane length; symbolic sizes are not representable as a fixed-width
// plane and must be concretized by the caller (e.g. via the allocator)
// before an ObjectState can be built over them.
func concreteObjectSize(mo *MemoryObject) uint {
	ce, ok := mo.Size.(*ConstantExpr)
	assert(ok, "memcore.NewObjectState: %s has non-constant size", mo.AllocInfo())
	return uint(ce.Value)
}

// Object returns the MemoryObject this state holds bytes for.
func (os *ObjectState) Object() *MemoryObject { return os.object }

// Clone returns an independent copy, safe to hand to a forked execution
// state as the other half of a copy-on-write pair. The clone starts with
// no copy-on-write owner of its own.
func (os *ObjectState) Clone() *ObjectState {
	other := &ObjectState{
		object:       os.object,
		ReadOnly:     os.ReadOnly,
		littleEndian: os.littleEndian,
		offsetPlane:  os.offsetPlane.Clone(),
	}
	if os.segmentPlane != nil {
		other.segmentPlane = os.segmentPlane.Clone()
	}
	return other
}

// InitializeToZero sets both planes, if present, all concrete and zero.
func (os *ObjectState) InitializeToZero() {
	os.offsetPlane.initializeToZero()
	if os.segmentPlane != nil {
		os.segmentPlane.initializeToZero()
	}
}

// InitializeToRandom sets both planes, if present, all concrete and random.
func (os *ObjectState) InitializeToRandom() {
	os.offsetPlane.initializeToRandom()
	if os.segmentPlane != nil {
		os.segmentPlane.initializeToRandom()
	}
}

// prepareSegmentPlane lazily allocates the segment-plane the first time a
// write needs to record a non-zero segment. nonzero hints whether the
// caller already knows the incoming segment is non-constant-zero; a false
// hint never allocates the plane. Returns whether the plane exists
// afterwards.
func (os *ObjectState) prepareSegmentPlane(nonzero bool) bool {
	if os.segmentPlane != nil {
		return true
	}
	if !nonzero {
		return false
	}
	os.segmentPlane = NewConcreteBytePlane(os.littleEndian, os.offsetPlane.sizeBound)
	os.segmentPlane.initializeToZero()
	return true
}

// prepareSegmentPlaneForExpr is prepareSegmentPlane specialized to the
// value about to be written: a constant zero segment never forces
// allocation, anything else does.
func (os *ObjectState) prepareSegmentPlaneForExpr(value Expr) bool {
	ce, isConst := value.(*ConstantExpr)
	nonzero := !isConst || ce.Value != 0
	return os.prepareSegmentPlane(nonzero)
}

// Read returns the width-bit SegValue stored at offset: the offset-plane
// contributes Off, the segment-plane contributes Seg if allocated,
// otherwise Seg is synthesized as the constant zero of the same width.
func (os *ObjectState) Read(offset uint, width uint) SegValue {
	off := os.offsetPlane.read(offset, width)
	if os.segmentPlane == nil {
		return NewScalar(off)
	}
	return NewSegValue(os.segmentPlane.read(offset, width), off)
}

// ReadSymbolic is Read at a symbolic byte offset.
func (os *ObjectState) ReadSymbolic(offset Expr, width uint) SegValue {
	off := os.offsetPlane.readSymbolic(offset, width)
	if os.segmentPlane == nil {
		return NewScalar(off)
	}
	return NewSegValue(os.segmentPlane.readSymbolic(offset, width), off)
}

// Write stores value at offset, rejecting the write if the object is
// read-only and lazily allocating the segment-plane if value carries a
// non-zero segment.
func (os *ObjectState) Write(offset uint, value SegValue) error {
	if os.ReadOnly {
		return ErrReadOnly
	}
	width := value.Width()
	os.offsetPlane.write(offset, width, value.Off)
	if os.prepareSegmentPlaneForExpr(value.Seg) {
		os.segmentPlane.write(offset, width, value.Seg)
	}
	return nil
}

// WriteSymbolic is Write at a symbolic byte offset.
func (os *ObjectState) WriteSymbolic(offset Expr, value SegValue) error {
	if os.ReadOnly {
		return ErrReadOnly
	}
	os.offsetPlane.writeSymbolic(offset, value.Off)
	if os.prepareSegmentPlaneForExpr(value.Seg) {
		os.segmentPlane.writeSymbolic(offset, value.Seg)
	}
	return nil
}

// Write8 writes a single concrete byte plus its segment tag.
func (os *ObjectState) Write8(offset uint, segment, value uint8) error {
	if os.ReadOnly {
		return ErrReadOnly
	}
	os.offsetPlane.write8Concrete(offset, value)
	if os.prepareSegmentPlane(segment != 0) {
		os.segmentPlane.write8Concrete(offset, segment)
	}
	return nil
}

// Write16 writes a concrete 16-bit value plus its segment tag.
func (os *ObjectState) Write16(offset uint, segment, value uint16) error {
	return os.writeN(offset, Width16, uint64(segment), uint64(value))
}

// Write32 writes a concrete 32-bit value plus its segment tag.
func (os *ObjectState) Write32(offset uint, segment, value uint32) error {
	return os.writeN(offset, Width32, uint64(segment), uint64(value))
}

// Write64 writes a concrete 64-bit value plus its segment tag.
func (os *ObjectState) Write64(offset uint, segment, value uint64) error {
	return os.writeN(offset, Width64, segment, value)
}

func (os *ObjectState) writeN(offset uint, width uint, segment, value uint64) error {
	if os.ReadOnly {
		return ErrReadOnly
	}
	os.offsetPlane.write(offset, width, NewConstantExpr(value, width))
	if os.prepareSegmentPlane(segment != 0) {
		os.segmentPlane.write(offset, width, NewConstantExpr(segment, width))
	}
	return nil
}

// FlushToConcreteStore concretizes the offset-plane under solver and the
// given path condition. The segment plane is internal bookkeeping; its
// concretization is not a capability this operation exposes.
func (os *ObjectState) FlushToConcreteStore(solver Solver, pathCondition []Expr) error {
	return os.offsetPlane.FlushToConcreteStore(solver, pathCondition)
}

// Format renders a SegValue the way this object's diagnostics do: the
// offset alone when the segment is the constant zero, "seg:off" otherwise.
// Identical to SegValue.String, exposed here because callers reading out
// of an ObjectState typically want the object's own formatting rule, not
// an ad hoc one.
func (os *ObjectState) Format(v SegValue) string {
	return v.String()
}
