package internal

type RefCell struct {
	ref any
}

// UseRef returns the same box on every pass; init runs on the first pass only.
func (p *Pass) UseRef(init func() any) (any, error) {
	slot, fresh, err := p.next(SlotRef)
	if err != nil {
		return nil, err
	}

	if fresh {
		ref, fault := p.compute(slot.position, init)
		if fault != nil {
			return nil, fault
		}
		slot.cell = &RefCell{ref: ref}
	}

	return slot.cell.(*RefCell).ref, nil
}

// HandleCell caches an imperative handle and publishes it to an external
// holder from the layout phase of a flush.
type HandleCell struct {
	EffectCell

	value any
}

// UseImperativeHandle builds the handle when deps (or the holder) change and
// queues its publication. Unchanged deps leave the published handle in place.
// publish receives nil when the handle is detached.
func (p *Pass) UseImperativeHandle(holder any, publish func(any), build func() any, deps Deps) (any, error) {
	slot, fresh, err := p.next(SlotImperativeHandle)
	if err != nil {
		return nil, err
	}

	if fresh {
		slot.cell = &HandleCell{EffectCell: EffectCell{phase: EffectLayout}}
	}
	cell := slot.cell.(*HandleCell)

	deps = deps.With(holder)

	if cell.initialized {
		changed, err := p.depsChanged(slot.position, cell.deps, deps)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cell.value, nil
		}
	}

	value, fault := p.compute(slot.position, build)
	if fault != nil {
		return nil, fault
	}

	p.stage(func() { cell.value = value })
	p.queueEffect(slot.position, &cell.EffectCell, func() func() {
		if publish == nil {
			return nil
		}

		publish(value)
		return func() { publish(nil) }
	}, deps)

	return value, nil
}
