package addrspace_test

import (
	"testing"

	"github.com/vexec/memcore"
	"github.com/vexec/memcore/addrspace"
)

func TestAddressSpace_AllocAssignsDistinctSegments(t *testing.T) {
	ctx := memcore.NewContext64()
	as := addrspace.New(ctx)

	mo1, os1 := as.Alloc(16, true, false, false, "a", nil)
	mo2, os2 := as.Alloc(16, true, false, false, "b", nil)

	if mo1.Segment == mo2.Segment {
		t.Fatalf("expected distinct segments, got %d and %d", mo1.Segment, mo2.Segment)
	}
	if as.Get(mo1.Segment) != os1 {
		t.Fatal("expected Get to return the object state bound at alloc time")
	}
	if as.Get(mo2.Segment) != os2 {
		t.Fatal("expected Get to return the object state bound at alloc time")
	}
}

func TestAddressSpace_ForkCopyOnWrite(t *testing.T) {
	ctx := memcore.NewContext64()
	parent := addrspace.New(ctx)
	mo, os := parent.Alloc(16, true, false, false, "x", nil)
	os.InitializeToZero()
	if err := os.Write8(0, 0, 0xAA); err != nil {
		t.Fatal(err)
	}

	child := parent.Fork()

	// Before either side writes again, both share the same ObjectState.
	if child.Get(mo.Segment) != parent.Get(mo.Segment) {
		t.Fatal("expected fork to share structure until a write diverges")
	}

	childOS := child.GetForWriting(mo.Segment)
	if err := childOS.Write8(0, 0, 0xBB); err != nil {
		t.Fatal(err)
	}

	parentOS := parent.Get(mo.Segment)
	if got := parentOS.Read(0, 8).Off.(*memcore.ConstantExpr).Value; got != 0xAA {
		t.Fatalf("parent's allocation was mutated by child's write: got %#x", got)
	}
	if got := childOS.Read(0, 8).Off.(*memcore.ConstantExpr).Value; got != 0xBB {
		t.Fatalf("child did not observe its own write: got %#x", got)
	}
}

func TestAddressSpace_Free(t *testing.T) {
	ctx := memcore.NewContext64()
	as := addrspace.New(ctx)
	mo, _ := as.Alloc(16, true, false, false, "x", nil)

	as.Free(mo.Segment)
	if as.Get(mo.Segment) != nil {
		t.Fatal("expected segment to be unbound after Free")
	}
}

func TestAddressSpace_AllocSymbolic(t *testing.T) {
	ctx := memcore.NewContext64()
	as := addrspace.New(ctx)
	array := memcore.NewArray(42, 8)

	mo, os := as.AllocSymbolic(array, false, true, false, "input", nil)
	if mo.Segment == 0 {
		t.Fatal("expected non-zero segment for symbolic allocation")
	}
	if os.Object() != mo {
		t.Fatal("expected object state to reference its memory object")
	}
}
