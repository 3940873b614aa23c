package hook

import "github.com/AnatoleLucet/hook/internal"

// Fault is the error type for every failure the dispatcher surfaces.
// Match kinds with errors.Is against the Err* sentinels.
type Fault = internal.Fault

type FaultKind = internal.FaultKind

const (
	FaultHookOrder  = internal.FaultHookOrder
	FaultHookCount  = internal.FaultHookCount
	FaultDepsLength = internal.FaultDepsLength
	FaultOutOfPass  = internal.FaultOutOfPass
	FaultCorrupted  = internal.FaultCorrupted
	FaultEffect     = internal.FaultEffect
	FaultReducer    = internal.FaultReducer
	FaultCompute    = internal.FaultCompute
)

var (
	// ErrHookOrderViolation: a slot's kind differs from the previous pass. Fatal.
	ErrHookOrderViolation = internal.ErrHookOrderViolation
	// ErrHookCountViolation: a pass made more or fewer hook calls than the previous one. Fatal.
	ErrHookCountViolation = internal.ErrHookCountViolation
	// ErrDepsLengthViolation: a dependency list changed length at a slot. Fatal.
	ErrDepsLengthViolation = internal.ErrDepsLengthViolation
	// ErrOutOfPass: a pass, flush or unmount requested at the wrong time.
	ErrOutOfPass = internal.ErrOutOfPass
	// ErrInstanceCorrupted: the instance hit a fatal fault and must be unmounted.
	ErrInstanceCorrupted = internal.ErrInstanceCorrupted
	// ErrEffectFault: an effect body or cleanup panicked.
	ErrEffectFault = internal.ErrEffectFault
	// ErrReducerFault: a reducer or state updater panicked.
	ErrReducerFault = internal.ErrReducerFault
	// ErrComputeFault: a memo, initializer or handle builder panicked.
	ErrComputeFault = internal.ErrComputeFault
)

// PanicError wraps a panic value that was not an error.
type PanicError = internal.PanicError
