// Package addrspace is a concrete reference implementation of the
// allocator and address-space collaborators a memcore.Context is wired
// against: segment assignment and the copy-on-write sharing of
// ObjectStates across forked execution states.
package addrspace

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/vexec/memcore"
)

// segmentComparer orders segment tags for immutable.SortedMap. Implements
// immutable.Comparer.
type segmentComparer struct{}

func (segmentComparer) Compare(a, b interface{}) int {
	x, y := a.(uint64), b.(uint64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// AddressSpace maps segment tags to the ObjectState holding that
// allocation's bytes, backed by a persistent sorted map so a Fork is O(1)
// and shares structure with its parent until a write forces a copy.
type AddressSpace struct {
	ctx *memcore.Context

	// owner identifies this address space for copy-on-write purposes: an
	// ObjectState tagged with a different owner must be cloned before
	// this address space writes through it.
	owner uuid.UUID

	objects     *immutable.SortedMap
	nextSegment uint64
}

// New returns an empty address space for ctx. Segment zero is reserved
// for "not a pointer" and is never assigned to an allocation.
func New(ctx *memcore.Context) *AddressSpace {
	return &AddressSpace{
		ctx:         ctx,
		owner:       uuid.New(),
		objects:     immutable.NewSortedMap(segmentComparer{}),
		nextSegment: 1,
	}
}

// Name identifies this address space for MemoryObject.AllocInfo
// diagnostics. Implements memcore.Allocator.
func (as *AddressSpace) Name() string {
	return fmt.Sprintf("addrspace:%s", as.owner)
}

// Alloc assigns the next free segment to a new allocation of size bytes
// and returns both the descriptor and the byte store backing it.
func (as *AddressSpace) Alloc(size uint, isLocal, isGlobal, isFixed bool, name string, allocSite interface{}) (*memcore.MemoryObject, *memcore.ObjectState) {
	segment := as.nextSegment
	as.nextSegment++

	mo := memcore.NewMemoryObject(as.ctx, segment, segment, 0,
		memcore.NewConstantExpr(uint64(size), as.ctx.PointerWidth),
		isLocal, isGlobal, isFixed, allocSite, as)
	if name != "" {
		mo.Name = name
	}

	os := memcore.NewObjectState(as.ctx, mo)
	as.bind(segment, os)
	return mo, os
}

// AllocSymbolic is Alloc for an allocation whose contents are backed by a
// named, solver-visible array rather than a local concrete buffer.
func (as *AddressSpace) AllocSymbolic(array *memcore.Array, isLocal, isGlobal, isFixed bool, name string, allocSite interface{}) (*memcore.MemoryObject, *memcore.ObjectState) {
	segment := as.nextSegment
	as.nextSegment++

	mo := memcore.NewMemoryObject(as.ctx, segment, segment, 0,
		memcore.NewConstantExpr(uint64(array.Size), as.ctx.PointerWidth),
		isLocal, isGlobal, isFixed, allocSite, as)
	if name != "" {
		mo.Name = name
	}

	os := memcore.NewSymbolicObjectState(as.ctx, mo, array)
	as.bind(segment, os)
	return mo, os
}

// Free removes an allocation's ObjectState from the address space. The
// segment is never reused.
func (as *AddressSpace) Free(segment uint64) {
	as.objects = as.objects.Delete(segment)
}

// Get returns the ObjectState bound to segment, for reading. Returns nil
// if no allocation holds that segment.
func (as *AddressSpace) Get(segment uint64) *memcore.ObjectState {
	v, ok := as.objects.Get(segment)
	if !ok {
		return nil
	}
	return v.(*memcore.ObjectState)
}

// GetForWriting returns the ObjectState bound to segment, cloning it first
// if another address space (from a prior Fork) still owns it — the
// copy-on-write path. Returns nil if no allocation holds that segment.
func (as *AddressSpace) GetForWriting(segment uint64) *memcore.ObjectState {
	os := as.Get(segment)
	if os == nil {
		return nil
	}
	if os.CopyOnWriteOwner() == as.owner {
		return os
	}
	clone := os.Clone()
	clone.SetCopyOnWriteOwner(as.owner)
	as.bind(segment, clone)
	return clone
}

func (as *AddressSpace) bind(segment uint64, os *memcore.ObjectState) {
	os.SetCopyOnWriteOwner(as.owner)
	as.objects = as.objects.Set(segment, os)
}

// Fork returns a child address space sharing every ObjectState with as
// until one of them diverges through GetForWriting. The persistent map
// makes this an O(1) structural share, not a deep copy.
func (as *AddressSpace) Fork() *AddressSpace {
	child := &AddressSpace{
		ctx:         as.ctx,
		owner:       uuid.New(),
		objects:     as.objects,
		nextSegment: as.nextSegment,
	}
	// The parent takes a fresh owner too, so its next write clones instead
	// of mutating an ObjectState the child still shares.
	as.owner = uuid.New()
	return child
}

// Segments returns every currently-bound segment tag in ascending order.
func (as *AddressSpace) Segments() []uint64 {
	var segments []uint64
	itr := as.objects.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		segments = append(segments, k.(uint64))
	}
	return segments
}

// Dump renders every live allocation and its ObjectState for diagnostics,
// using the same structured formatter the rest of the package uses for
// ad hoc debugging.
func (as *AddressSpace) Dump() string {
	var out strings.Builder
	itr := as.objects.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		os := v.(*memcore.ObjectState)
		fmt.Fprintf(&out, "segment %d: %s\n", k.(uint64), os.Object().AllocInfo())
		out.WriteString(spew.Sdump(os))
	}
	return out.String()
}
