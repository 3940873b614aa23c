package hook

import "github.com/AnatoleLucet/hook/internal"

// Setter updates a state slot. Updates take effect on the next pass; the
// Setter is the same value on every pass.
type Setter[T any] struct {
	cell *internal.StateCell
}

// Set replaces the state.
func (s Setter[T]) Set(v T) {
	s.cell.Dispatch(internal.SetAction{Value: v})
}

// Update applies fn to the latest pending state, so several updates made
// before the next pass chain onto each other.
func (s Setter[T]) Update(fn func(prev T) T) {
	s.cell.Dispatch(internal.SetAction{Updater: func(v any) any {
		return fn(as[T](v))
	}})
}

// UseState returns the state's value for this pass and its setter.
func UseState[T any](p *Pass, initial T) (T, Setter[T]) {
	return UseLazyState(p, func() T { return initial })
}

// UseLazyState is UseState with an initializer that runs on the first pass only.
func UseLazyState[T any](p *Pass, init func() T) (T, Setter[T]) {
	v, cell, err := p.pass.UseState(func() any { return init() })
	must(err)

	return as[T](v), Setter[T]{cell}
}

// Dispatch sends actions to a reducer slot. It is the same value on every pass.
type Dispatch[A any] struct {
	cell *internal.StateCell
}

// Send queues the action. The reducer runs when the next pass folds it.
func (d Dispatch[A]) Send(action A) {
	d.cell.Dispatch(action)
}

// UseReducer returns the state folded from every action sent before this pass.
// The reducer must be pure; a panic in it fails the pass with ErrReducerFault
// and leaves the committed state in place. The faulting action is dropped
// along with the actions queued before it.
func UseReducer[S, A any](p *Pass, reducer func(state S, action A) S, initial S) (S, Dispatch[A]) {
	v, cell, err := p.pass.UseReducer(
		func(s, a any) any { return reducer(as[S](s), as[A](a)) },
		func() any { return initial },
	)
	must(err)

	return as[S](v), Dispatch[A]{cell}
}
