package internal

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Scheduler is the renderer's queue entry point.
type Scheduler interface {
	ScheduleRender(id InstanceID)
}

type Options struct {
	Scheduler Scheduler
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Equal     Comparator

	// drop writes equal to the committed value when nothing else is pending
	SkipEqualWrites bool
	// fault hook calls made from a goroutine other than the pass's
	StrictGoroutine bool
}

// Dispatcher supervises render passes for any number of instances.
// Instances share no mutable state, so passes for different instances may run concurrently.
type Dispatcher struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
	equal  Comparator

	instances sync.Map // InstanceID -> *Instance
	batcher   *Batcher
}

func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		opts:    opts,
		logger:  opts.Logger,
		tracer:  opts.Tracer,
		equal:   opts.Equal,
		batcher: NewBatcher(),
	}

	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer("")
	}
	if d.equal == nil {
		d.equal = Identical
	}

	return d
}

func (d *Dispatcher) lookup(id InstanceID) (*Instance, bool) {
	v, ok := d.instances.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Instance), true
}

// BeginPass resets the instance's cursor and returns the pass handle,
// creating the instance on its first pass.
func (d *Dispatcher) BeginPass(id InstanceID) (*Pass, error) {
	inst, ok := d.lookup(id)
	if !ok {
		v, _ := d.instances.LoadOrStore(id, d.newInstance(id))
		inst = v.(*Instance)
	}

	inst.mu.Lock()
	if inst.corrupted != nil {
		inst.mu.Unlock()
		f := newFault(FaultCorrupted, id, NoPosition, "instance must be unmounted and recreated")
		f.Cause = inst.corrupted
		return nil, d.report(f)
	}
	if inst.pass != nil {
		inst.mu.Unlock()
		return nil, d.report(newFault(FaultOutOfPass, id, NoPosition, "a pass is already active"))
	}
	if inst.unmounted {
		inst.mu.Unlock()
		return nil, d.report(newFault(FaultOutOfPass, id, NoPosition, "instance is unmounting"))
	}

	_, span := d.tracer.Start(context.Background(), "hook.pass",
		trace.WithAttributes(attribute.Int64("hook.instance", int64(id))))

	p := &Pass{inst: inst, gid: goroutineID(), span: span}
	inst.pass = p
	inst.scheduled = false
	inst.mu.Unlock()

	inst.slots.Reset()
	d.logger.Debug("pass started", "instance", id)

	return p, nil
}

// EndPass checks the hook count and commits the pass, or rolls it back if
// the pass faulted. Fatal faults mark the instance corrupted.
func (d *Dispatcher) EndPass(id InstanceID) error {
	inst, p, err := d.activePass(id)
	if err != nil {
		return err
	}

	if p.err == nil {
		if f := inst.slots.Finish(id); f != nil {
			p.fail(f)
		}
	}

	if p.err != nil {
		d.finish(inst, p, false)
		return p.err
	}

	d.finish(inst, p, true)
	return nil
}

// AbortPass discards everything the active pass staged.
func (d *Dispatcher) AbortPass(id InstanceID) error {
	inst, p, err := d.activePass(id)
	if err != nil {
		return err
	}

	d.finish(inst, p, false)
	return nil
}

func (d *Dispatcher) activePass(id InstanceID) (*Instance, *Pass, error) {
	inst, ok := d.lookup(id)
	if !ok {
		return nil, nil, d.report(newFault(FaultOutOfPass, id, NoPosition, "unknown instance"))
	}

	inst.mu.Lock()
	p := inst.pass
	inst.mu.Unlock()

	if p == nil {
		return nil, nil, d.report(newFault(FaultOutOfPass, id, NoPosition, "no active pass"))
	}

	return inst, p, nil
}

func (d *Dispatcher) finish(inst *Instance, p *Pass, commit bool) {
	p.ended = true

	if commit {
		for _, fn := range p.commits {
			fn()
		}
		for _, entry := range p.effects {
			inst.effects.Enqueue(entry)
		}
	} else {
		for _, fn := range p.aborts {
			fn()
		}
		inst.slots.Rollback()
	}

	inst.mu.Lock()
	inst.pass = nil
	if p.err != nil && p.err.Kind.Fatal() {
		inst.corrupted = p.err
	}
	inst.mu.Unlock()

	p.span.SetAttributes(
		attribute.Int("hook.slots", inst.slots.Len()),
		attribute.Int("hook.effects.queued", len(p.effects)),
	)
	if p.err != nil {
		p.span.RecordError(p.err)
		p.span.SetStatus(codes.Error, string(p.err.Kind))
		d.report(p.err)
	}
	p.span.End()

	d.logger.Debug("pass ended", "instance", inst.id, "committed", commit, "slots", inst.slots.Len())
}

// AfterCommit flushes the instance's pending effects, layout phase first,
// each phase in call-site order. The first fault stops the flush.
func (d *Dispatcher) AfterCommit(id InstanceID) error {
	inst, ok := d.lookup(id)
	if !ok {
		return d.report(newFault(FaultOutOfPass, id, NoPosition, "unknown instance"))
	}

	inst.mu.Lock()
	switch {
	case inst.pass != nil:
		inst.mu.Unlock()
		return d.report(newFault(FaultOutOfPass, id, NoPosition, "commit signalled during an active pass"))
	case inst.flushing:
		inst.mu.Unlock()
		return d.report(newFault(FaultOutOfPass, id, NoPosition, "flush already running"))
	}
	inst.flushing = true
	inst.mu.Unlock()

	defer func() {
		inst.mu.Lock()
		inst.flushing = false
		inst.mu.Unlock()
	}()

	_, span := d.tracer.Start(context.Background(), "hook.flush",
		trace.WithAttributes(attribute.Int64("hook.instance", int64(id))))
	defer span.End()

	unmounted := func() bool {
		inst.mu.Lock()
		defer inst.mu.Unlock()
		return inst.unmounted
	}
	run := func(e *EffectEntry) *Fault { return e.run(id) }

	total := 0
	var fault *Fault
	for _, phase := range effectPhases {
		var ran int
		ran, fault = inst.effects.RunEffects(phase, unmounted, run)
		total += ran

		if fault != nil || unmounted() {
			break
		}
	}

	span.SetAttributes(attribute.Int("hook.effects.run", total))

	var err error
	if fault != nil {
		span.RecordError(fault)
		span.SetStatus(codes.Error, string(fault.Kind))
		err = d.report(fault)
	} else {
		d.logger.Debug("effects flushed", "instance", id, "ran", total)
	}

	// an effect body unmounted its own instance
	if unmounted() {
		if terr := d.teardown(inst); terr != nil {
			err = errors.Join(err, terr)
		}
	}

	return err
}

// Unmount discards unflushed effects, runs every outstanding cleanup and
// releases the instance. Cleanup faults do not stop the remaining cleanups.
// Called during a flush, it stops the flush before its next entry and the
// teardown runs once the flush unwinds.
func (d *Dispatcher) Unmount(id InstanceID) error {
	inst, ok := d.lookup(id)
	if !ok {
		return d.report(newFault(FaultOutOfPass, id, NoPosition, "unknown instance"))
	}

	inst.mu.Lock()
	if inst.pass != nil {
		inst.mu.Unlock()
		return d.report(newFault(FaultOutOfPass, id, NoPosition, "unmount during an active pass"))
	}
	if inst.unmounted {
		inst.mu.Unlock()
		return nil
	}
	inst.unmounted = true
	flushing := inst.flushing
	inst.mu.Unlock()

	if flushing {
		d.logger.Debug("unmount deferred until the flush unwinds", "instance", id)
		return nil
	}

	return d.teardown(inst)
}

func (d *Dispatcher) teardown(inst *Instance) error {
	id := inst.id

	_, span := d.tracer.Start(context.Background(), "hook.unmount",
		trace.WithAttributes(attribute.Int64("hook.instance", int64(id))))
	defer span.End()

	discarded := inst.effects.Discard()

	var faults []error
	for pos, cell := range inst.effectCells {
		if f := cell.release(id, pos); f != nil {
			faults = append(faults, d.report(f))
		}
	}

	d.instances.CompareAndDelete(id, inst)

	span.SetAttributes(attribute.Int("hook.effects.discarded", discarded))
	d.logger.Debug("instance unmounted", "instance", id, "discarded", discarded)

	if len(faults) > 0 {
		err := errors.Join(faults...)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(FaultEffect))
		return err
	}

	return nil
}

// Batch holds render requests made inside fn until the outermost batch
// completes, then schedules each dirty instance once.
func (d *Dispatcher) Batch(fn func()) {
	d.batcher.Batch(fn, func(deferred []*Instance) {
		for _, inst := range deferred {
			d.scheduleNow(inst)
		}
	})
}

func (d *Dispatcher) schedule(inst *Instance) {
	if d.batcher.Defer(inst) {
		return
	}
	d.scheduleNow(inst)
}

func (d *Dispatcher) scheduleNow(inst *Instance) {
	if d.opts.Scheduler != nil {
		d.opts.Scheduler.ScheduleRender(inst.id)
	}
}

// SlotInfo describes one slot for inspection.
type SlotInfo struct {
	Position int
	Kind     SlotKind
}

// Inspect lists the instance's slots. It must not race a pass on the same instance.
func (d *Dispatcher) Inspect(id InstanceID) ([]SlotInfo, error) {
	inst, ok := d.lookup(id)
	if !ok {
		return nil, newFault(FaultOutOfPass, id, NoPosition, "unknown instance")
	}

	infos := make([]SlotInfo, 0, inst.slots.Len())
	for slot := range inst.slots.All() {
		infos = append(infos, SlotInfo{Position: slot.position, Kind: slot.kind})
	}

	return infos, nil
}

// PendingEffects counts queued, non-stale effect entries.
func (d *Dispatcher) PendingEffects(id InstanceID) int {
	inst, ok := d.lookup(id)
	if !ok {
		return 0
	}

	n := 0
	for _, phase := range effectPhases {
		n += inst.effects.Len(phase)
	}
	return n
}

func (d *Dispatcher) report(f *Fault) *Fault {
	d.logger.Error("hook fault",
		"kind", string(f.Kind),
		"instance", f.Instance,
		"slot", f.Position,
		"error", f.Error(),
	)
	return f
}
