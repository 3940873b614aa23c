// Package hook is a hook dispatcher runtime: it maps the linear sequence of
// hook calls made by a render function onto persistent per-instance slots.
//
// A host renderer drives each instance through passes:
//
//	d := hook.NewDispatcher(renderer)
//
//	err := d.Render(id, func(p *hook.Pass) {
//		count, setCount := hook.UseState(p, 0)
//		hook.UseEffect(p, func() func() {
//			fmt.Println("count is", count)
//			return nil
//		}, hook.Deps(count))
//		_ = setCount
//	})
//	// commit host mutations, then
//	err = d.AfterCommit(id)
//
// Hooks are addressed by call position, so every pass of an instance must
// make the same hook calls in the same order.
package hook

import (
	"github.com/AnatoleLucet/hook/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type InstanceID = internal.InstanceID

// Scheduler is implemented by the renderer: state writes call ScheduleRender
// to request a new pass for the instance.
type Scheduler interface {
	ScheduleRender(id InstanceID)
}

// SchedulerFunc adapts a function to a Scheduler.
type SchedulerFunc func(id InstanceID)

func (f SchedulerFunc) ScheduleRender(id InstanceID) { f(id) }

type Dispatcher struct {
	d *internal.Dispatcher
}

// NewDispatcher creates a dispatcher reporting render requests to s.
// s may be nil when the host polls instead.
func NewDispatcher(s Scheduler, opts ...Option) *Dispatcher {
	o := newOptions(s, opts)

	return &Dispatcher{
		internal.NewDispatcher(o.runtime()),
	}
}

// Pass is the handle every hook call takes during one render pass.
type Pass struct {
	d    *Dispatcher
	pass *internal.Pass
}

// Instance returns the id of the instance being rendered.
func (p *Pass) Instance() InstanceID { return p.pass.Instance() }

// NextSlot advances the cursor and returns the slot at that position,
// allocating it on the instance's first pass.
func (p *Pass) NextSlot(kind SlotKind) (*Slot, error) { return p.pass.NextSlot(kind) }

// End ends the pass. See Dispatcher.EndPass.
func (p *Pass) End() error { return p.d.EndPass(p.Instance()) }

// BeginPass starts a pass for the instance, creating it on first use.
// It fails with ErrOutOfPass if a pass is already active for the instance.
func (d *Dispatcher) BeginPass(id InstanceID) (*Pass, error) {
	p, err := d.d.BeginPass(id)
	if err != nil {
		return nil, err
	}

	return &Pass{d, p}, nil
}

// EndPass checks that the pass made as many hook calls as the previous one
// and commits it. A faulted pass is rolled back and its fault returned.
func (d *Dispatcher) EndPass(id InstanceID) error { return d.d.EndPass(id) }

// AfterCommit runs the effects queued by committed passes.
func (d *Dispatcher) AfterCommit(id InstanceID) error { return d.d.AfterCommit(id) }

// Unmount runs every outstanding cleanup and releases the instance.
// Effects that were queued but not yet flushed never run.
func (d *Dispatcher) Unmount(id InstanceID) error { return d.d.Unmount(id) }

// Render runs fn as one pass of the instance. Hook faults raised inside fn
// abort the pass and are returned. Other panics abort the pass and propagate.
func (d *Dispatcher) Render(id InstanceID, fn func(p *Pass)) (err error) {
	p, err := d.BeginPass(id)
	if err != nil {
		return err
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if f, ok := r.(*Fault); ok {
			p.pass.Fail(f)
			err = d.d.EndPass(id)
			return
		}

		_ = d.d.AbortPass(id)
		panic(r)
	}()

	fn(p)

	return d.d.EndPass(id)
}

// Batch holds render requests made inside fn until the outermost batch
// completes, then schedules each dirty instance once.
func (d *Dispatcher) Batch(fn func()) { d.d.Batch(fn) }

// Inspect lists the instance's slots in position order.
func (d *Dispatcher) Inspect(id InstanceID) ([]SlotInfo, error) { return d.d.Inspect(id) }

// PendingEffects counts the effects waiting for the next AfterCommit.
func (d *Dispatcher) PendingEffects(id InstanceID) int { return d.d.PendingEffects(id) }

type (
	Slot     = internal.Slot
	SlotKind = internal.SlotKind
	SlotInfo = internal.SlotInfo
)

const (
	SlotState            = internal.SlotState
	SlotReducer          = internal.SlotReducer
	SlotMemo             = internal.SlotMemo
	SlotRef              = internal.SlotRef
	SlotImperativeHandle = internal.SlotImperativeHandle
	SlotEffect           = internal.SlotEffect
)

// must raises a hook fault inside a render function; Render recovers it.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
