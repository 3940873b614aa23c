package internal

import (
	"errors"
	"fmt"
)

// FaultKind is a machine-readable fault classification.
type FaultKind string

const (
	FaultHookOrder  FaultKind = "HOOK_ORDER_VIOLATION"
	FaultHookCount  FaultKind = "HOOK_COUNT_VIOLATION"
	FaultDepsLength FaultKind = "DEPS_LENGTH_VIOLATION"
	FaultOutOfPass  FaultKind = "OUT_OF_PASS"
	FaultCorrupted  FaultKind = "INSTANCE_CORRUPTED"
	FaultEffect     FaultKind = "EFFECT_FAULT"
	FaultReducer    FaultKind = "REDUCER_FAULT"
	FaultCompute    FaultKind = "COMPUTE_FAULT"
)

// Fatal reports whether a fault of this kind corrupts the instance.
func (k FaultKind) Fatal() bool {
	switch k {
	case FaultHookOrder, FaultHookCount, FaultDepsLength:
		return true
	}
	return false
}

// NoPosition marks a fault that is not tied to a slot.
const NoPosition = -1

type Fault struct {
	Kind     FaultKind
	Instance InstanceID
	Position int    // slot position, or NoPosition
	Message  string // internal message (for logs/telemetry)
	Cause    error
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("hook: %s: instance %d", f.Kind, f.Instance)
	if f.Position != NoPosition {
		msg += fmt.Sprintf(" slot %d", f.Position)
	}
	if f.Message != "" {
		msg += ": " + f.Message
	}
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is reports whether target is a fault of the same kind.
func (f *Fault) Is(target error) bool {
	if t, ok := target.(*Fault); ok {
		return f.Kind == t.Kind
	}
	return false
}

func newFault(kind FaultKind, id InstanceID, pos int, format string, args ...any) *Fault {
	return &Fault{
		Kind:     kind,
		Instance: id,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
	}
}

// PanicError carries a value recovered from user code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// faultFromPanic wraps a recovered value, keeping faults raised by nested hook code intact.
func faultFromPanic(kind FaultKind, id InstanceID, pos int, r any) *Fault {
	if f, ok := r.(*Fault); ok {
		return f
	}

	var cause error
	if err, ok := r.(error); ok {
		cause = err
	} else {
		cause = &PanicError{Value: r}
	}

	return &Fault{Kind: kind, Instance: id, Position: pos, Cause: cause}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrHookOrderViolation  = &Fault{Kind: FaultHookOrder, Position: NoPosition}
	ErrHookCountViolation  = &Fault{Kind: FaultHookCount, Position: NoPosition}
	ErrDepsLengthViolation = &Fault{Kind: FaultDepsLength, Position: NoPosition}
	ErrOutOfPass           = &Fault{Kind: FaultOutOfPass, Position: NoPosition}
	ErrInstanceCorrupted   = &Fault{Kind: FaultCorrupted, Position: NoPosition}
	ErrEffectFault         = &Fault{Kind: FaultEffect, Position: NoPosition}
	ErrReducerFault        = &Fault{Kind: FaultReducer, Position: NoPosition}
	ErrComputeFault        = &Fault{Kind: FaultCompute, Position: NoPosition}
)

// AsFault extracts the first fault in err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
