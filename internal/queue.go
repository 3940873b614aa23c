package internal

type EffectQueue struct {
	effects map[EffectPhase][]*EffectEntry

	// the phase currently being run, detached from effects
	running []*EffectEntry
}

func NewEffectQueue() *EffectQueue {
	effects := make(map[EffectPhase][]*EffectEntry)
	for _, phase := range effectPhases {
		effects[phase] = nil
	}

	return &EffectQueue{effects: effects}
}

// Enqueue appends the entry to its phase, marking older entries for the same
// cell stale. That includes entries of a run in progress, so a pass committed
// from inside an effect body supersedes bodies the run has not reached yet.
func (q *EffectQueue) Enqueue(entry *EffectEntry) {
	phase := entry.cell.phase

	for _, pending := range q.effects[phase] {
		if pending.cell == entry.cell {
			pending.stale = true
		}
	}
	for _, pending := range q.running {
		if pending.cell == entry.cell {
			pending.stale = true
		}
	}

	q.effects[phase] = append(q.effects[phase], entry)
}

// RunEffects runs the phase's entries in insertion order. Entries enqueued
// while it runs wait for the next flush. The first fault stops the run, as
// does halt reporting true before an entry; the entries not reached stay
// queued. ran counts the entries that completed.
func (q *EffectQueue) RunEffects(phase EffectPhase, halt func() bool, run func(*EffectEntry) *Fault) (ran int, fault *Fault) {
	effects := q.effects[phase]
	q.effects[phase] = nil
	q.running = effects
	defer func() { q.running = nil }()

	for i, entry := range effects {
		if entry.stale {
			continue
		}

		if halt != nil && halt() {
			q.requeue(phase, effects[i:])
			return ran, nil
		}

		if fault := run(entry); fault != nil {
			q.requeue(phase, effects[i+1:])
			return ran, fault
		}
		ran++
	}

	return ran, nil
}

// requeue puts entries a run did not reach ahead of those enqueued while it ran.
func (q *EffectQueue) requeue(phase EffectPhase, rest []*EffectEntry) {
	rest = append([]*EffectEntry(nil), rest...)
	q.effects[phase] = append(rest, q.effects[phase]...)
}

func (q *EffectQueue) Len(phase EffectPhase) int {
	n := 0
	for _, entry := range q.effects[phase] {
		if !entry.stale {
			n++
		}
	}
	return n
}

// Discard drops every pending entry without running it.
func (q *EffectQueue) Discard() int {
	n := 0
	for _, phase := range effectPhases {
		n += q.Len(phase)
		q.effects[phase] = nil
	}
	return n
}
