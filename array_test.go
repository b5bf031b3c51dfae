package memcore_test

import (
	"testing"

	"github.com/vexec/memcore"
	"github.com/google/go-cmp/cmp"
)

func TestArray(t *testing.T) {
	t.Run("Concrete", func(t *testing.T) {
		t.Run("Bool", func(t *testing.T) {
			a := memcore.NewArray(0, 4)
			a = a.Store(memcore.NewConstantExpr(3, 32), memcore.NewConstantExpr(1, 1), false)
			if expr, ok := a.Select(memcore.NewConstantExpr(3, 32), 1, false).(*memcore.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 1 {
				t.Fatal("unexpected value")
			} else if expr.Width != 1 {
				t.Fatal("unexpected width")
			}
		})

		t.Run("BigEndian", func(t *testing.T) {
			a := memcore.NewArray(0, 4)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0xAABBCCDD, 32), false)
			if expr, ok := a.Select(memcore.NewConstantExpr(0, 32), 32, false).(*memcore.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0xAABBCCDD {
				t.Fatal("unexpected value")
			}
		})

		t.Run("LittleEndian", func(t *testing.T) {
			a := memcore.NewArray(0, 4)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0xAABBCCDD, 32), true)
			if expr, ok := a.Select(memcore.NewConstantExpr(0, 32), 32, true).(*memcore.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0xAABBCCDD {
				t.Fatal("unexpected value")
			}
		})
	})

	t.Run("Symbolic", func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			t.Run("SingleByte", func(t *testing.T) {
				a := memcore.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(memcore.NewConstantExpr64(0), 8, false),
					&memcore.SelectExpr{
						Array: a,
						Index: memcore.NewConstantExpr64(0),
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("BigEndian", func(t *testing.T) {
				a := memcore.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(memcore.NewConstantExpr64(2), 16, false),
					&memcore.ConcatExpr{
						MSB: &memcore.SelectExpr{
							Array: a,
							Index: memcore.NewConstantExpr64(2),
						},
						LSB: &memcore.SelectExpr{
							Array: a,
							Index: memcore.NewConstantExpr64(3),
						},
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("LittleEndian", func(t *testing.T) {
				a := memcore.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(memcore.NewConstantExpr64(2), 16, true),
					&memcore.ConcatExpr{
						MSB: &memcore.SelectExpr{
							Array: a,
							Index: memcore.NewConstantExpr64(3),
						},
						LSB: &memcore.SelectExpr{
							Array: a,
							Index: memcore.NewConstantExpr64(2),
						},
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure stores using selects from other arrays return references
			// to that original array's expressions.
			t.Run("MultiArray", func(t *testing.T) {
				a, b := memcore.NewArray(0, 4), memcore.NewArray(0, 8)
				b = b.Store(
					memcore.NewConstantExpr64(6),
					a.Select(memcore.NewConstantExpr64(2), 16, false),
					false,
				)

				if diff := cmp.Diff(
					&memcore.ConcatExpr{
						MSB: &memcore.SelectExpr{
							Array: b,
							Index: memcore.NewConstantExpr64(4),
						},
						LSB: &memcore.ConcatExpr{
							MSB: &memcore.SelectExpr{
								Array: b,
								Index: memcore.NewConstantExpr64(5),
							},
							LSB: &memcore.ConcatExpr{
								MSB: &memcore.SelectExpr{
									Array: a,
									Index: memcore.NewConstantExpr64(2),
								},
								LSB: &memcore.SelectExpr{
									Array: a,
									Index: memcore.NewConstantExpr64(3),
								},
							},
						},
					},
					b.Select(memcore.NewConstantExpr64(4), 32, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure selection of an array that contains a store with a
			// symbolic index will simply a read from the array.
			t.Run("SymbolicIndex", func(t *testing.T) {
				a, b, c := memcore.NewArray(0, 8), memcore.NewArray(0, 8), memcore.NewArray(0, 8)

				// Write concrete zeros.
				c = c.Store(
					memcore.NewConstantExpr64(0),
					memcore.NewConstantExpr64(0),
					false,
				)

				// Overwrite with store using symbolic index.
				c = c.Store(
					b.Select(memcore.NewConstantExpr64(0), 32, false),
					a.Select(memcore.NewConstantExpr64(0), 8, false),
					false,
				)

				if diff := cmp.Diff(
					&memcore.ConcatExpr{
						MSB: &memcore.SelectExpr{
							Array: c,
							Index: memcore.NewConstantExpr64(0),
						},
						LSB: &memcore.SelectExpr{
							Array: c,
							Index: memcore.NewConstantExpr64(1),
						},
					},
					c.Select(memcore.NewConstantExpr64(0), 16, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure that selection from an array with a symbolic store index
			// and then concrete store index will return the concrete store.
			t.Run("SymbolicIndexOverwritten", func(t *testing.T) {
				a, b, c := memcore.NewArray(0, 4), memcore.NewArray(0, 4), memcore.NewArray(0, 4)
				c = c.Store(
					b.Select(memcore.NewConstantExpr64(0), 32, false),
					a.Select(memcore.NewConstantExpr64(0), 32, false),
					false,
				)

				c = c.Store(
					memcore.NewConstantExpr64(1),
					a.Select(memcore.NewConstantExpr64(0), 8, false),
					false,
				)

				if diff := cmp.Diff(
					&memcore.ConcatExpr{
						MSB: &memcore.SelectExpr{
							Array: c,
							Index: memcore.NewConstantExpr64(0),
						},
						LSB: &memcore.SelectExpr{
							Array: a,
							Index: memcore.NewConstantExpr64(0),
						},
					},
					c.Select(memcore.NewConstantExpr64(0), 16, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})
		})
	})

	t.Run("GC", func(t *testing.T) {
		t.Run("ConcreteIndex", func(t *testing.T) {
			a := memcore.NewArray(0, 2)
			a = a.Store(memcore.NewConstantExpr64(0), memcore.NewConstantExpr8(0), false)
			a = a.Store(memcore.NewConstantExpr64(1), memcore.NewConstantExpr8(1), false)
			a = a.Store(memcore.NewConstantExpr64(0), memcore.NewConstantExpr8(2), false)
			if expr, ok := a.Select(memcore.NewConstantExpr64(0), 16, false).(*memcore.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0x0201 {
				t.Fatalf("unexpected value: 0x%04x", expr.Value)
			}

			if diff := cmp.Diff(
				&memcore.Array{
					Size: 2,
					Updates: &memcore.ArrayUpdate{
						Index: memcore.NewConstantExpr64(0),
						Value: memcore.NewConstantExpr8(2),
						Next: &memcore.ArrayUpdate{
							Index: memcore.NewConstantExpr64(1),
							Value: memcore.NewConstantExpr8(1),
						},
					},
				},
				a,
			); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("SymbolicIndex", func(t *testing.T) {
			a, b := memcore.NewArray(0, 2), memcore.NewArray(0, 1)
			a = a.Store(memcore.NewConstantExpr64(0), memcore.NewConstantExpr8(0), false)
			a = a.Store(b.Select(memcore.NewConstantExpr64(0), 8, false), memcore.NewConstantExpr8(1), false) // symbolic index
			a = a.Store(memcore.NewConstantExpr64(0), memcore.NewConstantExpr8(2), false)

			if diff := cmp.Diff(
				&memcore.Array{
					Size: 2,
					Updates: &memcore.ArrayUpdate{
						Index: memcore.NewConstantExpr64(0),
						Value: memcore.NewConstantExpr8(2),
						Next: &memcore.ArrayUpdate{
							Index: &memcore.CastExpr{
								Src: &memcore.SelectExpr{
									Array: b,
									Index: memcore.NewConstantExpr64(0),
								},
								Width: 64,
							},
							Value: memcore.NewConstantExpr8(1),
							Next: &memcore.ArrayUpdate{
								Index: memcore.NewConstantExpr64(0),
								Value: memcore.NewConstantExpr8(0),
							},
						},
					},
				},
				a,
			); diff != "" {
				t.Fatal(diff)
			}
		})
	})

	t.Run("IsSymbolic", func(t *testing.T) {
		t.Run("AllConcrete", func(t *testing.T) {
			a := memcore.NewArray(0, 2)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), false)
			a = a.Store(memcore.NewConstantExpr(1, 32), memcore.NewConstantExpr(0, 8), false)
			if a.IsSymbolic() {
				t.Fatal("expected concrete")
			}
		})

		t.Run("UnsetByte", func(t *testing.T) {
			a := memcore.NewArray(0, 2)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})

		t.Run("ContainsSelectValue", func(t *testing.T) {
			a, b := memcore.NewArray(0, 2), memcore.NewArray(0, 2)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), false)
			a = a.Store(memcore.NewConstantExpr(1, 32), b.Select(memcore.NewConstantExpr(0, 32), 8, false), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})

		t.Run("ContainsSelectIndex", func(t *testing.T) {
			a, b := memcore.NewArray(0, 2), memcore.NewArray(0, 2)
			a = a.Store(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), false)
			a = a.Store(b.Select(memcore.NewConstantExpr(0, 32), 8, false), memcore.NewConstantExpr(0, 32), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})
	})
}

func TestCompareArray(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if cmp := memcore.CompareArray(nil, nil); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(nil, memcore.NewArray(0, 2)); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(memcore.NewArray(0, 2), nil); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Size", func(t *testing.T) {
		if cmp := memcore.CompareArray(memcore.NewArray(0, 2), memcore.NewArray(0, 2)); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(memcore.NewArray(0, 1), memcore.NewArray(0, 2)); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(memcore.NewArray(0, 2), memcore.NewArray(0, 1)); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Name", func(t *testing.T) {
		a := memcore.NewNamedArray(0, 2, "MO1.off")
		b := memcore.NewNamedArray(0, 2, "MO2.off")
		if cmp := memcore.CompareArray(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArray(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})
}

func TestArray_String(t *testing.T) {
	if s := memcore.NewArray(0, 2).String(); s != "(array 2)" {
		t.Fatalf("unexpected string: %s", s)
	}
	if s := memcore.NewArray(5, 2).String(); s != "(array #5 2)" {
		t.Fatalf("unexpected string: %s", s)
	}
	if s := memcore.NewNamedArray(5, 2, "MO1.off").String(); s != "(array MO1.off #5 2)" {
		t.Fatalf("unexpected string: %s", s)
	}
}

func TestCompareArrayUpdate(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		upd := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), nil)
		if cmp := memcore.CompareArrayUpdate(nil, nil); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(nil, upd); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(upd, nil); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Index", func(t *testing.T) {
		a := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), nil)
		b := memcore.NewArrayUpdate(memcore.NewConstantExpr(1, 32), memcore.NewConstantExpr(0, 8), nil)
		if cmp := memcore.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Value", func(t *testing.T) {
		a := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), nil)
		b := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(1, 8), nil)
		if cmp := memcore.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Next", func(t *testing.T) {
		a := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), nil)
		b := memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), memcore.NewArrayUpdate(memcore.NewConstantExpr(0, 32), memcore.NewConstantExpr(0, 8), nil))
		if cmp := memcore.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := memcore.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})
}
