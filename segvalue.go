package memcore

import "fmt"

// SegValue is the unit of computation on the interpreter's operand stack: a
// pair of equal-width expressions, (seg, off). A SegValue whose seg is the
// constant zero denotes a plain scalar; any other seg denotes a pointer
// derived from the allocation whose segment tag equals seg. Width is an
// invariant of the pair — every constructor and operator preserves it.
type SegValue struct {
	Seg Expr
	Off Expr
}

// NewScalar returns a SegValue wrapping a plain (non-pointer) expression.
// Its segment is the constant zero at the same width as off.
func NewScalar(off Expr) SegValue {
	return SegValue{Seg: NewConstantExpr(0, ExprWidth(off)), Off: off}
}

// NewSegValue returns a SegValue from an explicit (seg, off) pair. Panics if
// the two expressions do not share a width.
func NewSegValue(seg, off Expr) SegValue {
	assert(ExprWidth(seg) == ExprWidth(off), "memcore.SegValue: width mismatch: seg=%d off=%d", ExprWidth(seg), ExprWidth(off))
	return SegValue{Seg: seg, Off: off}
}

// NewConstantSegValue returns a scalar SegValue wrapping a constant.
func NewConstantSegValue(value uint64, width uint) SegValue {
	return NewScalar(NewConstantExpr(value, width))
}

// Width returns the common bit width of the segment and offset components.
func (v SegValue) Width() uint {
	w := ExprWidth(v.Off)
	assert(ExprWidth(v.Seg) == w, "memcore.SegValue.Width: seg/off width mismatch: %d != %d", ExprWidth(v.Seg), w)
	return w
}

// IsZero returns the predicate seg = 0 ∧ off = 0.
func (v SegValue) IsZero() Expr {
	return newAndExpr(NewIsZeroExpr(v.Seg), NewIsZeroExpr(v.Off))
}

// IsConstant returns true iff both components are constant expressions.
func (v SegValue) IsConstant() bool {
	return IsConstantExpr(v.Seg) && IsConstantExpr(v.Off)
}

// IsScalar returns true iff the segment component is the constant zero.
// Unlike IsZero, this does not require the offset to be zero too — it
// identifies "not a tracked pointer", not "the zero value".
func (v SegValue) IsScalar() bool {
	seg, ok := v.Seg.(*ConstantExpr)
	return ok && seg.Value == 0
}

// String renders v the way the interpreter's pretty-printer does: the
// offset alone when the segment is the constant zero, "seg:off" otherwise.
// Constant components print as bare decimal values.
func (v SegValue) String() string {
	str := func(e Expr) string {
		if ce, ok := e.(*ConstantExpr); ok {
			return fmt.Sprintf("%d", ce.Value)
		}
		return e.String()
	}
	if v.IsScalar() {
		return str(v.Off)
	}
	return fmt.Sprintf("%s:%s", str(v.Seg), str(v.Off))
}

// ZExt returns v zero-extended to width w, preserving "segment-zero implies
// scalar" in both directions.
func (v SegValue) ZExt(w uint) SegValue {
	return SegValue{Seg: newZExtExpr(v.Seg, w), Off: newZExtExpr(v.Off, w)}
}

// SExt returns v sign-extended to width w.
func (v SegValue) SExt(w uint) SegValue {
	return SegValue{Seg: newSExtExpr(v.Seg, w), Off: newSExtExpr(v.Off, w)}
}

// Extract extracts the same bit slice from both components. Meaningful on a
// pointer-valued SegValue only when the slice covers the full width.
func (v SegValue) Extract(offset, width uint) SegValue {
	return SegValue{Seg: NewExtractExpr(v.Seg, offset, width), Off: NewExtractExpr(v.Off, offset, width)}
}

// Concat concatenates v (as the MSB) with lsb, combining segment with
// segment and offset with offset: the same segment-propagating rule that
// governs Add and Sub, generalized to bit concatenation.
func (v SegValue) Concat(lsb SegValue) SegValue {
	return SegValue{Seg: NewConcatExpr(v.Seg, lsb.Seg), Off: NewConcatExpr(v.Off, lsb.Off)}
}

// ConcatN concatenates a sequence of SegValues ordered MSB-first, folding
// pairwise with Concat. Used to assemble a wide SegValue out of the
// byte-wide reads a BytePlane produces.
func ConcatN(values ...SegValue) SegValue {
	assert(len(values) > 0, "memcore.ConcatN: no values")
	result := values[0]
	for _, v := range values[1:] {
		result = result.Concat(v)
	}
	return result
}

// checkWidth asserts that v and other share a width. A binary op on two
// SegValues of differing widths is a contract violation, not a value this
// package ever silently wraps or truncates.
func (v SegValue) checkWidth(other SegValue) {
	assert(v.Width() == other.Width(), "memcore.SegValue: width mismatch: %d != %d", v.Width(), other.Width())
}

// Add returns v + other. Segment-propagating: both components add
// componentwise, so a pointer plus a scalar offset keeps its segment tag.
func (v SegValue) Add(other SegValue) SegValue {
	v.checkWidth(other)
	return SegValue{Seg: newAddExpr(v.Seg, other.Seg), Off: newAddExpr(v.Off, other.Off)}
}

// Sub returns v - other. Segment-propagating, symmetric with Add; callers
// detect same-segment pointer difference (which yields segment zero) at a
// higher level by inspecting the result, not by special-casing here.
func (v SegValue) Sub(other SegValue) SegValue {
	v.checkWidth(other)
	return SegValue{Seg: newSubExpr(v.Seg, other.Seg), Off: newSubExpr(v.Off, other.Off)}
}

// Mul returns v * other. Offsets multiply; segments add rather than
// multiply, which is what preserves the identity 1*x == x for a pure
// scalar 1 (segment zero) without a special case in the multiply itself:
// Add(seg, 0) == seg.
func (v SegValue) Mul(other SegValue) SegValue {
	v.checkWidth(other)
	return SegValue{Seg: newAddExpr(v.Seg, other.Seg), Off: newMulExpr(v.Off, other.Off)}
}

// segmentErasingOp applies op to the offsets and forces the result segment
// to the constant zero — the rule shared by UDiv/SDiv/URem/SRem/And/Or/Xor/
// Shl/LShr/AShr, none of which preserve pointer provenance.
func (v SegValue) segmentErasingOp(op BinaryOp, other SegValue) SegValue {
	v.checkWidth(other)
	return SegValue{Seg: NewConstantExpr(0, v.Width()), Off: NewBinaryExpr(op, v.Off, other.Off)}
}

func (v SegValue) UDiv(other SegValue) SegValue { return v.segmentErasingOp(UDIV, other) }
func (v SegValue) SDiv(other SegValue) SegValue { return v.segmentErasingOp(SDIV, other) }
func (v SegValue) URem(other SegValue) SegValue { return v.segmentErasingOp(UREM, other) }
func (v SegValue) SRem(other SegValue) SegValue { return v.segmentErasingOp(SREM, other) }
func (v SegValue) And(other SegValue) SegValue  { return v.segmentErasingOp(AND, other) }
func (v SegValue) Or(other SegValue) SegValue   { return v.segmentErasingOp(OR, other) }
func (v SegValue) Xor(other SegValue) SegValue  { return v.segmentErasingOp(XOR, other) }
func (v SegValue) Shl(other SegValue) SegValue  { return v.segmentErasingOp(SHL, other) }
func (v SegValue) LShr(other SegValue) SegValue { return v.segmentErasingOp(LSHR, other) }
func (v SegValue) AShr(other SegValue) SegValue { return v.segmentErasingOp(ASHR, other) }

// compareOp applies a lexicographic segment-then-offset comparison:
// same segment compares offsets, differing segments compare segments. The
// result is a scalar boolean SegValue.
func (v SegValue) compareOp(cmp func(a, b Expr) Expr, other SegValue) SegValue {
	v.checkWidth(other)
	sameSeg := newEqExpr(v.Seg, other.Seg)
	return NewScalar(NewIfExpr(sameSeg, cmp(v.Off, other.Off), cmp(v.Seg, other.Seg)))
}

func (v SegValue) Ult(other SegValue) SegValue {
	return v.compareOp(func(a, b Expr) Expr { return newUltExpr(a, b) }, other)
}
func (v SegValue) Ule(other SegValue) SegValue {
	return v.compareOp(func(a, b Expr) Expr { return newUleExpr(a, b) }, other)
}
func (v SegValue) Ugt(other SegValue) SegValue { return other.Ult(v) }
func (v SegValue) Uge(other SegValue) SegValue { return other.Ule(v) }
func (v SegValue) Slt(other SegValue) SegValue {
	return v.compareOp(func(a, b Expr) Expr { return newSltExpr(a, b) }, other)
}
func (v SegValue) Sle(other SegValue) SegValue {
	return v.compareOp(func(a, b Expr) Expr { return newSleExpr(a, b) }, other)
}
func (v SegValue) Sgt(other SegValue) SegValue { return other.Slt(v) }
func (v SegValue) Sge(other SegValue) SegValue { return other.Sle(v) }

// Eq returns (seg = seg) ∧ (off = off) as a scalar boolean SegValue.
func (v SegValue) Eq(other SegValue) SegValue {
	v.checkWidth(other)
	return NewScalar(newAndExpr(newEqExpr(v.Seg, other.Seg), newEqExpr(v.Off, other.Off)))
}

// Ne returns the negation of Eq, expressed as the disjunction of
// inequalities rather than Not(Eq) so it folds the same way other
// disjunctions in this expression layer do.
func (v SegValue) Ne(other SegValue) SegValue {
	v.checkWidth(other)
	return NewScalar(newOrExpr(NewNotExpr(newEqExpr(v.Seg, other.Seg)), NewNotExpr(newEqExpr(v.Off, other.Off))))
}

// Select implements if-then-else over SegValues. The condition is taken
// from cond's offset component (its segment is ignored — cond is expected
// to be an i1 scalar produced by a comparison); both components of the
// result select componentwise between then and els.
func Select(cond, then, els SegValue) SegValue {
	return SegValue{
		Seg: NewIfExpr(cond.Off, then.Seg, els.Seg),
		Off: NewIfExpr(cond.Off, then.Off, els.Off),
	}
}
