package internal

type MemoCell struct {
	value       any
	deps        Deps
	initialized bool
}

// UseMemo returns the cached value while deps are unchanged, recomputing otherwise.
// A compute panic leaves the cache untouched and fails the pass.
func (p *Pass) UseMemo(compute func() any, deps Deps) (any, error) {
	slot, fresh, err := p.next(SlotMemo)
	if err != nil {
		return nil, err
	}

	if fresh {
		slot.cell = &MemoCell{}
	}
	cell := slot.cell.(*MemoCell)

	if cell.initialized {
		changed, err := p.depsChanged(slot.position, cell.deps, deps)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cell.value, nil
		}
	}

	value, fault := p.compute(slot.position, compute)
	if fault != nil {
		return nil, fault
	}

	p.stage(func() {
		cell.value = value
		cell.deps = deps
		cell.initialized = true
	})

	return value, nil
}
