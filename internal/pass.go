package internal

import (
	"go.opentelemetry.io/otel/trace"
)

// Pass is the explicit handle hook calls go through during one render pass.
type Pass struct {
	inst *Instance
	gid  int64
	span trace.Span

	// applied in call order when the pass ends cleanly
	commits []func()
	effects []*EffectEntry

	// applied when the pass is rolled back
	aborts []func()

	err   *Fault
	ended bool
}

func (p *Pass) Instance() InstanceID {
	return p.inst.id
}

// Err returns the fault that aborted the pass, if any.
func (p *Pass) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

// NextSlot advances the cursor and returns the slot for kind at that position.
func (p *Pass) NextSlot(kind SlotKind) (*Slot, error) {
	slot, fresh, err := p.next(kind)
	if err != nil {
		return nil, err
	}

	if fresh {
		slot.cell = newCell(p.inst, kind)
	}
	return slot, nil
}

func newCell(inst *Instance, kind SlotKind) any {
	switch kind {
	case SlotState:
		return &StateCell{inst: inst, reducer: applySetAction, plain: true}
	case SlotReducer:
		return &StateCell{inst: inst, reducer: applySetAction}
	case SlotMemo:
		return &MemoCell{}
	case SlotRef:
		return &RefCell{}
	case SlotImperativeHandle:
		return &HandleCell{EffectCell: EffectCell{phase: EffectLayout}}
	case SlotEffect:
		return &EffectCell{phase: EffectPassive}
	}
	return nil
}

func (p *Pass) next(kind SlotKind) (*Slot, bool, error) {
	if p.ended {
		return nil, false, newFault(FaultOutOfPass, p.inst.id, NoPosition, "hook called after the pass ended")
	}

	if p.err != nil {
		return nil, false, p.err
	}

	if p.inst.d.opts.StrictGoroutine {
		if gid := goroutineID(); gid != p.gid {
			return nil, false, p.fail(newFault(FaultOutOfPass, p.inst.id, p.inst.slots.Cursor(),
				"hook called from goroutine %d, pass owned by goroutine %d", gid, p.gid))
		}
	}

	slot, fresh, fault := p.inst.slots.Next(p.inst.id, kind)
	if fault != nil {
		return nil, false, p.fail(fault)
	}

	return slot, fresh, nil
}

// fail records the first fault of the pass and returns f.
func (p *Pass) fail(f *Fault) *Fault {
	if p.err == nil {
		p.err = f
	}
	return f
}

// Fail aborts the pass with f unless it already failed.
func (p *Pass) Fail(f *Fault) {
	p.fail(f)
}

func (p *Pass) stage(fn func()) {
	p.commits = append(p.commits, fn)
}

func (p *Pass) onAbort(fn func()) {
	p.aborts = append(p.aborts, fn)
}

// compute runs user code that produces a cell value.
func (p *Pass) compute(pos int, fn func() any) (value any, fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = p.fail(faultFromPanic(FaultCompute, p.inst.id, pos, r))
		}
	}()

	return fn(), nil
}

func (p *Pass) depsChanged(pos int, prev, next Deps) (bool, error) {
	change := compareDeps(prev, next, p.inst.d.equal)

	if change.lengthDiff {
		return false, p.fail(newFault(FaultDepsLength, p.inst.id, pos,
			"dependency list length changed from %d to %d", prev.Len(), next.Len()))
	}

	if change.modeChanged {
		p.inst.d.logger.Warn("dependency list switched between a list and always",
			"instance", p.inst.id, "slot", pos)
	}

	return change.changed, nil
}
