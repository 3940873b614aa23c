package internal

import "iter"

type SlotKind uint8

const (
	SlotState SlotKind = iota + 1
	SlotReducer
	SlotMemo
	SlotRef
	SlotImperativeHandle
	SlotEffect
)

func (k SlotKind) String() string {
	switch k {
	case SlotState:
		return "state"
	case SlotReducer:
		return "reducer"
	case SlotMemo:
		return "memo"
	case SlotRef:
		return "ref"
	case SlotImperativeHandle:
		return "imperative-handle"
	case SlotEffect:
		return "effect"
	}
	return "unknown"
}

// Slot is the persistent storage cell for one hook call position.
type Slot struct {
	kind     SlotKind
	position int
	cell     any
}

func (s *Slot) Kind() SlotKind { return s.kind }
func (s *Slot) Position() int  { return s.position }

// SlotStore is an arena of slots addressed by call position.
type SlotStore struct {
	slots  []*Slot
	cursor int

	// set once a pass has completed; from then on the slot count is fixed
	established bool
}

func (s *SlotStore) Reset() {
	s.cursor = 0
}

func (s *SlotStore) Len() int {
	return len(s.slots)
}

func (s *SlotStore) Cursor() int {
	return s.cursor
}

// At returns the slot at position i, or nil.
func (s *SlotStore) At(i int) *Slot {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}

// Next advances the cursor. The returned bool is true when the slot was just
// allocated; the caller owns initializing its cell.
func (s *SlotStore) Next(id InstanceID, kind SlotKind) (*Slot, bool, *Fault) {
	pos := s.cursor

	if pos < len(s.slots) {
		slot := s.slots[pos]
		if slot.kind != kind {
			return nil, false, newFault(FaultHookOrder, id, pos,
				"expected %s hook, got %s", slot.kind, kind)
		}

		s.cursor++
		return slot, false, nil
	}

	if s.established {
		return nil, false, newFault(FaultHookCount, id, pos,
			"more hooks than the %d recorded on the previous pass", len(s.slots))
	}

	slot := &Slot{kind: kind, position: pos}
	s.slots = append(s.slots, slot)
	s.cursor++

	return slot, true, nil
}

// Finish checks the cursor against the recorded slot count, establishing the
// count on the first successful pass.
func (s *SlotStore) Finish(id InstanceID) *Fault {
	if !s.established {
		s.established = true
		return nil
	}

	if s.cursor != len(s.slots) {
		return newFault(FaultHookCount, id, s.cursor,
			"rendered %d hooks, expected %d", s.cursor, len(s.slots))
	}

	return nil
}

// Rollback drops slots allocated by a pass that never established the count.
func (s *SlotStore) Rollback() {
	if !s.established {
		s.slots = nil
	}
	s.cursor = 0
}

// All returns an iterator over slots in position order.
func (s *SlotStore) All() iter.Seq[*Slot] {
	return func(yield func(*Slot) bool) {
		for _, slot := range s.slots {
			if !yield(slot) {
				return
			}
		}
	}
}
