package internal

import (
	"math"
	"reflect"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Deps is a dependency list attached to effect, memo and handle slots.
// The zero value is an empty list: it never changes, so the slot runs once.
type Deps struct {
	always bool
	keys   []any
}

// AlwaysDeps invalidates the slot on every pass.
var AlwaysDeps = Deps{always: true}

func NewDeps(keys ...any) Deps {
	if len(keys) == 0 {
		return Deps{}
	}

	return Deps{keys: append([]any(nil), keys...)}
}

func (d Deps) Always() bool { return d.always }
func (d Deps) Len() int     { return len(d.keys) }
func (d Deps) Keys() []any  { return d.keys }

// With returns a copy of the list with extra keys appended.
func (d Deps) With(keys ...any) Deps {
	if d.always {
		return d
	}

	out := make([]any, 0, len(d.keys)+len(keys))
	out = append(out, d.keys...)
	out = append(out, keys...)
	return Deps{keys: out}
}

// Comparator decides whether two dependency keys are the same.
type Comparator func(a, b any) bool

// depsChange is the outcome of comparing a slot's previous and next lists.
type depsChange struct {
	changed     bool
	modeChanged bool // switched between a list and AlwaysDeps
	lengthDiff  bool // fatal: the list length changed at a fixed position
}

func compareDeps(prev, next Deps, eq Comparator) depsChange {
	switch {
	case next.always && prev.always:
		return depsChange{changed: true}
	case next.always || prev.always:
		return depsChange{changed: true, modeChanged: true}
	case len(prev.keys) != len(next.keys):
		return depsChange{changed: true, lengthDiff: true}
	}

	for i := range next.keys {
		if !eq(prev.keys[i], next.keys[i]) {
			return depsChange{changed: true}
		}
	}

	return depsChange{}
}

// Identical compares by identity: == for comparable values, reference
// identity for funcs, maps, slices and pointers. NaN is identical to NaN.
func Identical(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	switch x := a.(type) {
	case float64:
		y := b.(float64)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case float32:
		y := b.(float32)
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	}

	if ta.Comparable() {
		// structs holding interfaces may still carry uncomparable values
		defer func() {
			if recover() != nil {
				same = false
			}
		}()
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Func:
		return funcIdentity(va) == funcIdentity(vb)
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	}

	return false
}

// funcIdentity returns the closure object behind a func value. Code pointers
// are shared by every closure created from the same literal, so they cannot
// tell two closures apart.
func funcIdentity(v reflect.Value) unsafe.Pointer {
	if v.IsNil() {
		return nil
	}

	box := reflect.New(v.Type())
	box.Elem().Set(v)
	return *(*unsafe.Pointer)(box.UnsafePointer())
}

// DeepEqual accepts identical keys and otherwise compares structurally.
func DeepEqual(a, b any) (same bool) {
	if Identical(a, b) {
		return true
	}

	// cmp panics on unexported fields it has not been told how to handle
	defer func() {
		if recover() != nil {
			same = false
		}
	}()

	return cmp.Equal(a, b, cmpopts.EquateNaNs())
}
