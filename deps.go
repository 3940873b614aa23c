package hook

import "github.com/AnatoleLucet/hook/internal"

// DepList is an ordered list of keys compared pairwise against the list of
// the previous pass. Its length must not change for a given slot.
type DepList = internal.Deps

var (
	// Always invalidates the slot on every pass.
	Always = internal.AlwaysDeps
	// Once never changes: the slot computes or runs on the first pass only.
	Once = DepList{}
)

// Deps builds a dependency list.
func Deps(keys ...any) DepList {
	return internal.NewDeps(keys...)
}

// Comparator decides whether two dependency keys are equal.
type Comparator = internal.Comparator

// Identical compares with == and by reference for funcs, maps and slices.
// It is the default comparator.
func Identical(a, b any) bool { return internal.Identical(a, b) }

// DeepEqual compares structurally, falling back to Identical.
func DeepEqual(a, b any) bool { return internal.DeepEqual(a, b) }
