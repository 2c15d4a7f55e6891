package cosim

import (
	"errors"
	"fmt"
)

// Wiring violations detected during Simulator construction. They are
// always wrapped in a *ConfigurationError carrying the offending
// system/parameter names.
var (
	ErrUnknownSystem       = errors.New("cosim: unknown system")
	ErrUnknownParameter    = errors.New("cosim: unknown parameter")
	ErrDuplicateConnection = errors.New("cosim: duplicate connection target")
	ErrSelfConnection      = errors.New("cosim: connection sources its own system")
	ErrDtypeMismatch       = errors.New("cosim: incompatible parameter dtypes")
)

// ConfigurationError reports invalid wiring or logging configuration.
// It is raised eagerly, before any stepping.
type ConfigurationError struct {
	System    string
	Parameter string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%v (system %q, parameter %q)", e.Err, e.System, e.Parameter)
	}
	return fmt.Sprintf("%v (system %q)", e.Err, e.System)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnknownParameterError is returned by entities when a parameter name is
// not declared.
type UnknownParameterError struct {
	Parameter string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("cosim: parameter %q not declared", e.Parameter)
}

// SimulationStepError reports an entity failure during DoStep. The
// scheduler has no rollback, so the failure is propagated immediately.
type SimulationStepError struct {
	System string
	Time   float64
	Err    error
}

func (e *SimulationStepError) Error() string {
	return fmt.Sprintf("cosim: step failed in system %q at t=%g: %v", e.System, e.Time, e.Err)
}

func (e *SimulationStepError) Unwrap() error { return e.Err }

// InvalidSimulatorStateError reports an operation invoked in the wrong
// lifecycle state. This is a programmer error.
type InvalidSimulatorStateError struct {
	Op    string
	State SimulatorState
}

func (e *InvalidSimulatorStateError) Error() string {
	return fmt.Sprintf("cosim: %s not allowed in state %s", e.Op, e.State)
}
