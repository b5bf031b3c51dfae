package memcore

import "fmt"

// Allocator is the minimal view of an allocation registry a MemoryObject
// needs: a human-readable tag for diagnostics. The concrete allocator
// (segment assignment, address-space bookkeeping) lives in the addrspace
// package; memcore depends on this narrow interface only.
type Allocator interface {
	Name() string
}

// MemoryObject is an immutable allocation descriptor: identity, segment
// tag, concrete base address, size, provenance flags, and the bounds-check
// predicates derived from them. It never owns the bytes of the allocation
// — that is an ObjectState's job — and it never fails: every bounds
// predicate is a symbolic boolean for the solver to judge, not a Go error.
type MemoryObject struct {
	ID      uint64
	Segment uint64
	Address uint64

	// Size is the allocation size in bytes, zero-extended to PointerWidth.
	// May be symbolic.
	Size Expr

	Name string

	IsLocal         bool
	IsGlobal        bool
	IsFixed         bool
	IsUserSpecified bool

	// AllocSite identifies the instruction or global this object was
	// allocated for, for diagnostics only. May be nil.
	AllocSite interface{}

	// Allocator is the registry that produced this object, for
	// AllocInfo() diagnostics. May be nil.
	Allocator Allocator

	ctx *Context
}

// NewMemoryObject constructs a heap or stack allocation descriptor.
// size is zero-extended to ctx.PointerWidth, matching the original's
// ZExtExpr::create(size, Context::get().getPointerWidth()).
func NewMemoryObject(ctx *Context, id, segment, address uint64, size Expr, isLocal, isGlobal, isFixed bool, allocSite interface{}, allocator Allocator) *MemoryObject {
	return &MemoryObject{
		ID:        id,
		Segment:   segment,
		Address:   address,
		Size:      newZExtExpr(size, ctx.PointerWidth),
		Name:      "unnamed",
		IsLocal:   isLocal,
		IsGlobal:  isGlobal,
		IsFixed:   isFixed,
		AllocSite: allocSite,
		Allocator: allocator,
		ctx:       ctx,
	}
}

// SegmentExpr returns the object's segment tag as a pointer-width constant.
func (mo *MemoryObject) SegmentExpr() *ConstantExpr {
	return NewConstantExpr(mo.Segment, mo.ctx.PointerWidth)
}

// BaseExpr returns the object's base address as a pointer-width constant.
func (mo *MemoryObject) BaseExpr() *ConstantExpr {
	return NewConstantExpr(mo.Address, mo.ctx.PointerWidth)
}

// Pointer returns a SegValue naming the start of the allocation.
func (mo *MemoryObject) Pointer() SegValue {
	return NewSegValue(mo.SegmentExpr(), mo.BaseExpr())
}

// PointerAt returns a SegValue naming offset bytes into the allocation.
func (mo *MemoryObject) PointerAt(offset uint64) SegValue {
	off := newAddExpr(mo.BaseExpr(), NewConstantExpr(offset, mo.ctx.PointerWidth))
	return NewSegValue(mo.SegmentExpr(), off)
}

// SizeString renders the size for diagnostics: its value if constant,
// "symbolic" otherwise.
func (mo *MemoryObject) SizeString() string {
	if ce, ok := mo.Size.(*ConstantExpr); ok {
		return fmt.Sprintf("%d", ce.Value)
	}
	return "symbolic"
}

// OffsetExpr returns pointer - base, the byte offset of pointer within the
// allocation (meaningful only once the segment has already been checked).
func (mo *MemoryObject) OffsetExpr(pointer Expr) Expr {
	return newSubExpr(pointer, mo.BaseExpr())
}

// BoundsCheckOffset returns the predicate that offset names a byte within
// the allocation: offset = 0 when the allocation has constant zero size,
// offset < size otherwise.
func (mo *MemoryObject) BoundsCheckOffset(offset Expr) Expr {
	if ce, ok := mo.Size.(*ConstantExpr); ok && ce.Value == 0 {
		return newEqExpr(offset, NewConstantExpr(0, mo.ctx.PointerWidth))
	}
	return newUltExpr(offset, mo.Size)
}

// BoundsCheckOffsetN returns the predicate that a bytes-wide access
// starting at offset lies entirely within the allocation: offset + bytes
// <= size. Expressed as addition rather than size - (bytes - 1) so it
// never underflows when bytes exceeds a symbolic size; per invariant, a
// bytes-wide access where bytes exceeds a constant size is unconditionally
// false, which this formula already gives without a special case. The
// offset <= offset + bytes conjunct rejects offsets whose sum wraps.
func (mo *MemoryObject) BoundsCheckOffsetN(offset Expr, bytes uint) Expr {
	widened := newAddExpr(offset, NewConstantExpr(uint64(bytes), ExprWidth(offset)))
	return newAndExpr(newUleExpr(offset, widened), newUleExpr(widened, mo.Size))
}

// boundsCheckSegment returns seg = 0 ∨ seg = object.segment — the zero
// alternative admits pointer-to-fixed-address idioms that address memory
// outside any tracked allocation.
func (mo *MemoryObject) boundsCheckSegment(segment Expr) Expr {
	return newOrExpr(
		newEqExpr(segment, NewConstantExpr(0, ExprWidth(segment))),
		newEqExpr(mo.SegmentExpr(), segment),
	)
}

// BoundsCheckPointer returns the conjunction of the segment check on
// pointer.Seg and the offset check on the byte offset of pointer.Off.
func (mo *MemoryObject) BoundsCheckPointer(pointer SegValue) Expr {
	return newAndExpr(
		mo.boundsCheckSegment(pointer.Seg),
		mo.BoundsCheckOffset(mo.OffsetExpr(pointer.Off)),
	)
}

// BoundsCheckPointerN is BoundsCheckPointer specialized to a bytes-wide
// access.
func (mo *MemoryObject) BoundsCheckPointerN(pointer SegValue, bytes uint) Expr {
	return newAndExpr(
		mo.boundsCheckSegment(pointer.Seg),
		mo.BoundsCheckOffsetN(mo.OffsetExpr(pointer.Off), bytes),
	)
}

// Compare orders MemoryObjects: equal ids compare equal; otherwise address,
// then size decide. Objects tied on both are ordered by id when their
// allocation sites differ and compare equal when they share one.
func (mo *MemoryObject) Compare(other *MemoryObject) int {
	if mo.ID == other.ID {
		return 0
	}
	if mo.Address != other.Address {
		if mo.Address < other.Address {
			return -1
		}
		return 1
	}
	if cmp := CompareExpr(mo.Size, other.Size); cmp != 0 {
		return cmp
	}
	if mo.AllocSite != other.AllocSite {
		return int(mo.ID) - int(other.ID)
	}
	return 0
}

// AllocInfo returns a human-readable identifier for this allocation,
// suitable for diagnostics and error messages.
func (mo *MemoryObject) AllocInfo() string {
	kind := "heap"
	switch {
	case mo.IsLocal:
		kind = "local"
	case mo.IsGlobal:
		kind = "global"
	case mo.IsFixed:
		kind = "fixed"
	}
	allocator := "<unbound>"
	if mo.Allocator != nil {
		allocator = mo.Allocator.Name()
	}
	return fmt.Sprintf("MO%d[seg=%d addr=%#x size=%s kind=%s name=%q allocator=%s]",
		mo.ID, mo.Segment, mo.Address, mo.SizeString(), kind, mo.Name, allocator)
}
