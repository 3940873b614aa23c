package hook

// UseMemo returns the value computed for the current deps. compute runs only
// when deps changed since the previous pass, or on every pass with Always.
func UseMemo[T any](p *Pass, compute func() T, deps DepList) T {
	v, err := p.pass.UseMemo(func() any { return compute() }, deps)
	must(err)

	return as[T](v)
}

// UseCallback returns the same fn reference for as long as deps are unchanged.
func UseCallback[F any](p *Pass, fn F, deps DepList) F {
	v, err := p.pass.UseMemo(func() any { return fn }, deps)
	must(err)

	return as[F](v)
}
