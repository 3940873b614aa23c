package internal

import "sync"

type InstanceID uint64

// Instance owns the slots and effect queue of one component identity.
type Instance struct {
	id InstanceID
	d  *Dispatcher

	// not shared with writers; only touched by the goroutine driving passes
	slots   SlotStore
	effects *EffectQueue

	mu        sync.Mutex
	pass      *Pass
	flushing  bool
	corrupted *Fault
	unmounted bool
	scheduled bool
	queued    int    // pending state transitions across all cells
	version   uint64 // bumped on every enqueue and commit
}

func (d *Dispatcher) newInstance(id InstanceID) *Instance {
	return &Instance{
		id:      id,
		d:       d,
		effects: NewEffectQueue(),
	}
}

func (inst *Instance) markScheduledLocked() bool {
	if inst.scheduled {
		return false
	}

	inst.scheduled = true
	return true
}

// effectCells yields every cell holding a cleanup, in slot order, layout phase first.
func (inst *Instance) effectCells(yield func(pos int, cell *EffectCell) bool) {
	for _, phase := range effectPhases {
		for slot := range inst.slots.All() {
			var cell *EffectCell
			switch c := slot.cell.(type) {
			case *EffectCell:
				cell = c
			case *HandleCell:
				cell = &c.EffectCell
			default:
				continue
			}

			if cell.phase != phase {
				continue
			}
			if !yield(slot.position, cell) {
				return
			}
		}
	}
}
