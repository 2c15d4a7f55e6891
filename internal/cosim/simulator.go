package cosim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// SimulatorState is the lifecycle state of a Simulator.
type SimulatorState uint8

const (
	StateUninitialized SimulatorState = iota
	StateReady
	StateRunning
	StateConcluded
)

func (s SimulatorState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateConcluded:
		return "concluded"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Simulator couples a set of systems with a non-iterative, fixed-step
// Jacobi scheme: every entity steps using the inputs fixed during the
// previous propagation phase, then all fresh outputs are propagated at
// once. A source's output therefore reaches a connected input one step
// late; that lag is the defining trade-off of this scheduler class and
// is preserved exactly. Wiring cycles across systems are allowed: they
// resolve across the step boundary, never within one step, so a caller
// expecting same-step convergence inside a cycle is trading accuracy,
// not hitting a scheduler bug.
type Simulator struct {
	systems map[string]*System
	order   []string
	state   SimulatorState
	time    float64
	log     *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for non-fatal events such as
// teardown failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// New builds the system set from a name -> entity mapping and a per-system
// connection configuration, and validates the wiring eagerly. On any
// violation it returns a *ConfigurationError and no Simulator.
func New(entities map[string]SimulationEntity, connections map[string][]Connection, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		systems: make(map[string]*System, len(entities)),
		state:   StateUninitialized,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, entity := range entities {
		if entity == nil {
			return nil, &ConfigurationError{System: name, Err: fmt.Errorf("cosim: nil entity")}
		}
		s.systems[name] = &System{Name: name, Entity: entity}
		s.order = append(s.order, name)
	}
	// Step order among systems is irrelevant for the coupling scheme but
	// fixed per instance so logs and errors are reproducible.
	sort.Strings(s.order)

	for name, conns := range connections {
		sys, ok := s.systems[name]
		if !ok {
			return nil, &ConfigurationError{System: name, Err: ErrUnknownSystem}
		}
		sys.Connections = append(sys.Connections, conns...)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulator) validate() error {
	for _, name := range s.order {
		sys := s.systems[name]
		seen := make(map[string]bool, len(sys.Connections))
		for _, conn := range sys.Connections {
			if seen[conn.TargetParameter] {
				return &ConfigurationError{
					System:    name,
					Parameter: conn.TargetParameter,
					Err:       ErrDuplicateConnection,
				}
			}
			seen[conn.TargetParameter] = true

			if conn.SourceSystem == name {
				return &ConfigurationError{
					System:    name,
					Parameter: conn.TargetParameter,
					Err:       ErrSelfConnection,
				}
			}
			src, ok := s.systems[conn.SourceSystem]
			if !ok {
				return &ConfigurationError{System: conn.SourceSystem, Err: ErrUnknownSystem}
			}

			targetDtype, err := sys.Entity.Dtype(conn.TargetParameter)
			if err != nil {
				return &ConfigurationError{
					System:    name,
					Parameter: conn.TargetParameter,
					Err:       ErrUnknownParameter,
				}
			}
			sourceDtype, err := src.Entity.Dtype(conn.SourceParameter)
			if err != nil {
				return &ConfigurationError{
					System:    conn.SourceSystem,
					Parameter: conn.SourceParameter,
					Err:       ErrUnknownParameter,
				}
			}
			if !sourceDtype.AssignableTo(targetDtype) {
				return &ConfigurationError{
					System:    name,
					Parameter: conn.TargetParameter,
					Err: fmt.Errorf("%w: %s.%s is %s, %s.%s is %s",
						ErrDtypeMismatch,
						conn.SourceSystem, conn.SourceParameter, sourceDtype,
						name, conn.TargetParameter, targetDtype),
				}
			}
		}
	}
	return nil
}

// Initialize applies per-system start values and initializes every
// entity. The Simulator becomes Ready on success.
func (s *Simulator) Initialize(start map[string]StartValues) error {
	if s.state != StateUninitialized {
		return &InvalidSimulatorStateError{Op: "Initialize", State: s.state}
	}
	for name := range start {
		if _, ok := s.systems[name]; !ok {
			return &ConfigurationError{System: name, Err: ErrUnknownSystem}
		}
	}
	for _, name := range s.order {
		sys := s.systems[name]
		if err := sys.Entity.Initialize(start[name]); err != nil {
			return fmt.Errorf("cosim: initialize system %q: %w", name, err)
		}
	}
	s.state = StateReady
	return nil
}

// Start transitions a Ready simulator into Running.
func (s *Simulator) Start() error {
	if s.state != StateReady {
		return &InvalidSimulatorStateError{Op: "Start", State: s.state}
	}
	s.state = StateRunning
	return nil
}

// DoStep advances every system by stepSize starting at t, using the
// inputs held since the last propagation. The elapsed simulation time
// becomes t + stepSize. Entity failures abort the step immediately.
func (s *Simulator) DoStep(t, stepSize float64) error {
	if s.state != StateRunning {
		return &InvalidSimulatorStateError{Op: "DoStep", State: s.state}
	}
	for _, name := range s.order {
		sys := s.systems[name]
		if err := sys.Entity.DoStep(t, stepSize); err != nil {
			return &SimulationStepError{System: name, Time: t, Err: err}
		}
	}
	s.time = t + stepSize
	return nil
}

// SetSystemsInputs propagates every connection: the source's current
// output is written to the target's input, to be consumed by the next
// DoStep. This is where the one-step coupling lag is introduced.
func (s *Simulator) SetSystemsInputs() error {
	if s.state != StateRunning {
		return &InvalidSimulatorStateError{Op: "SetSystemsInputs", State: s.state}
	}
	for _, name := range s.order {
		sys := s.systems[name]
		for _, conn := range sys.Connections {
			src := s.systems[conn.SourceSystem]
			value, err := src.Entity.ParameterValue(conn.SourceParameter)
			if err != nil {
				return fmt.Errorf("cosim: read %s.%s: %w", conn.SourceSystem, conn.SourceParameter, err)
			}
			targetDtype, err := sys.Entity.Dtype(conn.TargetParameter)
			if err != nil {
				return fmt.Errorf("cosim: probe %s.%s: %w", name, conn.TargetParameter, err)
			}
			converted, err := value.Convert(targetDtype)
			if err != nil {
				return fmt.Errorf("cosim: propagate %s.%s -> %s.%s: %w",
					conn.SourceSystem, conn.SourceParameter, name, conn.TargetParameter, err)
			}
			if err := sys.Entity.SetInput(conn.TargetParameter, converted); err != nil {
				return fmt.Errorf("cosim: set %s.%s: %w", name, conn.TargetParameter, err)
			}
		}
	}
	return nil
}

// Time reports the elapsed simulation time.
func (s *Simulator) Time() float64 { return s.time }

// State reports the current lifecycle state.
func (s *Simulator) State() SimulatorState { return s.state }

// SystemNames returns the fixed visitation order.
func (s *Simulator) SystemNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// ParameterValue reads the current value of a parameter on a system.
func (s *Simulator) ParameterValue(system, parameter string) (Value, error) {
	sys, ok := s.systems[system]
	if !ok {
		return Value{}, &ConfigurationError{System: system, Err: ErrUnknownSystem}
	}
	return sys.Entity.ParameterValue(parameter)
}

// DtypeOf reports the declared dtype of a parameter on a system.
func (s *Simulator) DtypeOf(system, parameter string) (Dtype, error) {
	sys, ok := s.systems[system]
	if !ok {
		return 0, &ConfigurationError{System: system, Err: ErrUnknownSystem}
	}
	dt, err := sys.Entity.Dtype(parameter)
	if err != nil {
		return 0, &ConfigurationError{System: system, Parameter: parameter, Err: ErrUnknownParameter}
	}
	return dt, nil
}

// UnitOf reports the unit of a parameter, or "" when the entity exposes
// no unit metadata.
func (s *Simulator) UnitOf(system, parameter string) string {
	sys, ok := s.systems[system]
	if !ok {
		return ""
	}
	return sys.Entity.Unit(parameter)
}

// Units collects the units of the given parameters keyed by log name.
func (s *Simulator) Units(parameters []SystemParameter) map[string]string {
	units := make(map[string]string, len(parameters))
	for _, p := range parameters {
		units[p.LogName()] = s.UnitOf(p.System, p.Parameter)
	}
	return units
}

// ConcludeSimulation gives every entity a chance to release its
// resources and moves the Simulator to its terminal state. A failing
// teardown is logged per entity and does not prevent tearing down the
// rest.
func (s *Simulator) ConcludeSimulation() error {
	if s.state != StateReady && s.state != StateRunning {
		return &InvalidSimulatorStateError{Op: "ConcludeSimulation", State: s.state}
	}
	for _, name := range s.order {
		sys := s.systems[name]
		if err := sys.Entity.ConcludeSimulation(); err != nil {
			s.log.Warn("entity teardown failed", "system", name, "error", err)
		}
	}
	s.state = StateConcluded
	return nil
}

// Run drives the fixed-step loop from t=0 until stopTime is reached:
// step all systems, propagate outputs, then hand control to onStep (for
// recording or inspection) before the loop time advances. The Simulator
// must be Ready; it is left Running so the caller decides when to
// conclude. onStep may be nil.
func (s *Simulator) Run(ctx context.Context, stopTime, stepSize float64, onStep func(step int) error) error {
	if stepSize <= 0 {
		return fmt.Errorf("cosim: step size must be positive, got %g", stepSize)
	}
	if stopTime <= 0 {
		return fmt.Errorf("cosim: stop time must be positive, got %g", stopTime)
	}
	if err := s.Start(); err != nil {
		return err
	}

	steps := int(stopTime/stepSize + 0.5)
	t := 0.0
	for step := 0; step < steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.DoStep(t, stepSize); err != nil {
			return err
		}
		if err := s.SetSystemsInputs(); err != nil {
			return err
		}
		if onStep != nil {
			if err := onStep(step); err != nil {
				return err
			}
		}
		t = s.time
	}
	return nil
}
