package hook

// Ref is a mutable box. Refs returned by UseRef keep their identity across
// passes; refs created with NewRef can hold imperative handles.
type Ref[T any] struct {
	Current T
}

func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{Current: initial}
}

func UseRef[T any](p *Pass, initial T) *Ref[T] {
	v, err := p.pass.UseRef(func() any { return NewRef(initial) })
	must(err)

	return v.(*Ref[T])
}

// UseImperativeHandle builds a handle and publishes it to holder after commit.
// The handle is rebuilt and republished only when deps or holder change;
// otherwise holder keeps the previously published value. On unmount the
// holder is reset to the zero value.
func UseImperativeHandle[T any](p *Pass, holder *Ref[T], build func() T, deps DepList) T {
	var publish func(any)
	if holder != nil {
		publish = func(v any) { holder.Current = as[T](v) }
	}

	v, err := p.pass.UseImperativeHandle(holder, publish, func() any { return build() }, deps)
	must(err)

	return as[T](v)
}
