package internal

// Reducer folds an action into a state. It must be pure: it may run more than
// once for the same action when a pass is aborted and retried.
type Reducer func(state, action any) any

// SetAction is the action plain state cells fold: a replacement value, or an
// updater applied to the latest pending value.
type SetAction struct {
	Value   any
	Updater func(any) any
}

func applySetAction(state, action any) any {
	a := action.(SetAction)
	if a.Updater != nil {
		return a.Updater(state)
	}
	return a.Value
}

type update struct {
	action any

	// computed at write time against the committed value, plain state only
	eager      bool
	eagerValue any
}

// StateCell backs both state and reducer slots. Writes queue transitions;
// the owning pass folds them into the value it reads and commits the result.
type StateCell struct {
	inst *Instance

	// guarded by inst.mu
	value   any
	queue   []update
	reducer Reducer

	plain bool
}

func (p *Pass) UseState(init func() any) (any, *StateCell, error) {
	return p.useStateCell(SlotState, applySetAction, init)
}

func (p *Pass) UseReducer(reducer Reducer, init func() any) (any, *StateCell, error) {
	return p.useStateCell(SlotReducer, reducer, init)
}

func (p *Pass) useStateCell(kind SlotKind, reducer Reducer, init func() any) (any, *StateCell, error) {
	slot, fresh, err := p.next(kind)
	if err != nil {
		return nil, nil, err
	}

	if fresh {
		initial, fault := p.compute(slot.position, init)
		if fault != nil {
			return nil, nil, fault
		}

		slot.cell = &StateCell{
			inst:    p.inst,
			value:   initial,
			reducer: reducer,
			plain:   kind == SlotState,
		}
	}
	cell := slot.cell.(*StateCell)

	value, consumed, fault := cell.fold(reducer, slot.position)
	if fault != nil {
		// the faulting transition is consumed with the aborted pass, never folded again
		p.onAbort(func() { cell.drop(consumed) })
		return nil, nil, p.fail(fault)
	}

	p.stage(func() { cell.commit(value, consumed, reducer) })

	return value, cell, nil
}

// fold resolves the queued transitions on top of the committed value. On a
// fault, consumed counts the transitions up to and including the faulting one.
func (c *StateCell) fold(reducer Reducer, pos int) (value any, consumed int, fault *Fault) {
	c.inst.mu.Lock()
	value = c.value
	queue := c.queue
	c.inst.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			fault = faultFromPanic(FaultReducer, c.inst.id, pos, r)
		}
	}()

	for _, u := range queue {
		consumed++
		if u.eager {
			value = u.eagerValue
			continue
		}
		value = reducer(value, u.action)
	}

	return value, consumed, nil
}

func (c *StateCell) commit(value any, consumed int, reducer Reducer) {
	c.inst.mu.Lock()
	defer c.inst.mu.Unlock()

	c.value = value
	c.reducer = reducer
	c.dropLocked(consumed)
}

// drop discards the first n queued transitions, leaving the committed value alone.
func (c *StateCell) drop(n int) {
	c.inst.mu.Lock()
	defer c.inst.mu.Unlock()

	c.dropLocked(n)
}

func (c *StateCell) dropLocked(n int) {
	if n > 0 {
		c.queue = append([]update(nil), c.queue[n:]...)
		c.inst.queued -= n
	}
	c.inst.version++
}

// Dispatch queues an action and asks the renderer for a pass.
func (c *StateCell) Dispatch(action any) {
	inst := c.inst
	d := inst.d

	inst.mu.Lock()
	if inst.unmounted {
		inst.mu.Unlock()
		d.logger.Debug("write after unmount ignored", "instance", inst.id)
		return
	}

	u := update{action: action}

	if d.opts.SkipEqualWrites && inst.queued == 0 {
		base, reducer, version := c.value, c.reducer, inst.version
		inst.mu.Unlock()

		next, ok := eagerReduce(reducer, base, action)

		inst.mu.Lock()
		if inst.unmounted {
			inst.mu.Unlock()
			return
		}
		if ok && inst.version == version {
			if d.equal(base, next) {
				inst.mu.Unlock()
				d.logger.Debug("equal write skipped", "instance", inst.id)
				return
			}
			if c.plain {
				u.eager, u.eagerValue = true, next
			}
		}
	}

	c.queue = append(c.queue, u)
	inst.queued++
	inst.version++
	schedule := inst.markScheduledLocked()
	inst.mu.Unlock()

	if schedule {
		d.schedule(inst)
	}
}

// Committed returns the last committed value.
func (c *StateCell) Committed() any {
	c.inst.mu.Lock()
	defer c.inst.mu.Unlock()
	return c.value
}

// eagerReduce never lets a reducer panic escape a write; the fold re-raises it inside a pass.
func eagerReduce(reducer Reducer, state, action any) (next any, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return reducer(state, action), true
}
