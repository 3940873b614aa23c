package internal

type EffectPhase int

const (
	// EffectLayout runs first in a flush; imperative handles publish here.
	EffectLayout EffectPhase = iota
	EffectPassive
)

var effectPhases = [...]EffectPhase{EffectLayout, EffectPassive}

type EffectCell struct {
	phase EffectPhase

	deps        Deps
	initialized bool

	// returned by the last body that ran, consumed before the next one
	cleanup func()
}

// EffectEntry is a pending effect: created by a pass, consumed by the next flush.
type EffectEntry struct {
	Position int

	cell *EffectCell
	body func() func()
	deps Deps

	// superseded by a newer entry for the same cell before being flushed
	stale bool
}

// run settles one slot: previous cleanup, then the new body.
func (e *EffectEntry) run(id InstanceID) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = faultFromPanic(FaultEffect, id, e.Position, r)
		}
	}()

	if cleanup := e.cell.cleanup; cleanup != nil {
		e.cell.cleanup = nil
		cleanup()
	}

	e.cell.cleanup = e.body()
	return nil
}

// release runs the cell's outstanding cleanup, if any.
func (c *EffectCell) release(id InstanceID, pos int) (fault *Fault) {
	cleanup := c.cleanup
	if cleanup == nil {
		return nil
	}
	c.cleanup = nil

	defer func() {
		if r := recover(); r != nil {
			fault = faultFromPanic(FaultEffect, id, pos, r)
		}
	}()

	cleanup()
	return nil
}

func (p *Pass) UseEffect(phase EffectPhase, body func() func(), deps Deps) error {
	slot, fresh, err := p.next(SlotEffect)
	if err != nil {
		return err
	}

	if fresh {
		slot.cell = &EffectCell{phase: phase}
	}
	cell := slot.cell.(*EffectCell)
	if cell.phase != phase {
		return p.fail(newFault(FaultHookOrder, p.inst.id, slot.position, "effect phase changed between passes"))
	}

	if cell.initialized {
		changed, err := p.depsChanged(slot.position, cell.deps, deps)
		if err != nil || !changed {
			return err
		}
	}

	p.queueEffect(slot.position, cell, body, deps)
	return nil
}

func (p *Pass) queueEffect(pos int, cell *EffectCell, body func() func(), deps Deps) {
	p.effects = append(p.effects, &EffectEntry{Position: pos, cell: cell, body: body, deps: deps})
	p.stage(func() {
		cell.deps = deps
		cell.initialized = true
	})
}
