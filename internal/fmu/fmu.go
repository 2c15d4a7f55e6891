package fmu

import (
	"fmt"

	"github.com/san-kum/cosim/internal/cosim"
)

// FMU adapts one loaded co-simulation unit to the SimulationEntity
// contract, translating between named parameters and the unit's value
// references.
type FMU struct {
	name  string
	md    *ModelDescription
	slave Slave
}

// New reads the archive's model description and instantiates the unit
// through the loader.
func New(name, fmuPath string, load Loader) (*FMU, error) {
	if load == nil {
		return nil, fmt.Errorf("fmu: no loader registered for %q", name)
	}
	md, err := ReadModelDescription(fmuPath)
	if err != nil {
		return nil, err
	}
	slave, err := load(md, fmuPath)
	if err != nil {
		return nil, fmt.Errorf("fmu: load %q: %w", name, err)
	}
	return NewFromParts(name, md, slave), nil
}

// NewFromParts wraps an already-loaded slave. Useful when the caller
// owns instantiation.
func NewFromParts(name string, md *ModelDescription, slave Slave) *FMU {
	return &FMU{name: name, md: md, slave: slave}
}

// Name returns the system name the unit was registered under.
func (f *FMU) Name() string { return f.name }

// ModelDescription exposes the parsed static interface description.
func (f *FMU) ModelDescription() *ModelDescription { return f.md }

// Initialize runs the unit through its initialization protocol,
// applying start values while initialization mode is open.
func (f *FMU) Initialize(start cosim.StartValues) error {
	if err := f.slave.SetupExperiment(0); err != nil {
		return fmt.Errorf("fmu %q: setup experiment: %w", f.name, err)
	}
	if err := f.slave.EnterInitializationMode(); err != nil {
		return fmt.Errorf("fmu %q: enter initialization mode: %w", f.name, err)
	}
	for name, value := range start {
		if err := f.set(name, value); err != nil {
			return fmt.Errorf("fmu %q: start value %q: %w", f.name, name, err)
		}
	}
	if err := f.slave.ExitInitializationMode(); err != nil {
		return fmt.Errorf("fmu %q: exit initialization mode: %w", f.name, err)
	}
	return nil
}

func (f *FMU) set(name string, value cosim.Value) error {
	v, ok := f.md.Variable(name)
	if !ok {
		return &cosim.UnknownParameterError{Parameter: name}
	}
	dt, err := v.Type.Dtype()
	if err != nil {
		return err
	}
	converted, err := value.Convert(dt)
	if err != nil {
		return err
	}
	vr := []uint32{v.ValueReference}
	switch v.Type {
	case TypeReal:
		return f.slave.SetReal(vr, []float64{converted.AsReal()})
	case TypeInteger, TypeEnumeration:
		return f.slave.SetInteger(vr, []int32{int32(converted.AsInt())})
	case TypeBoolean:
		return f.slave.SetBoolean(vr, []bool{converted.AsBool()})
	case TypeString:
		return f.slave.SetString(vr, []string{converted.AsString()})
	}
	return fmt.Errorf("fmu: unsupported variable type %q", v.Type)
}

// SetInput stores an input value on the unit for the next step.
func (f *FMU) SetInput(name string, value cosim.Value) error {
	return f.set(name, value)
}

// ParameterValue reads the current value of a variable.
func (f *FMU) ParameterValue(name string) (cosim.Value, error) {
	v, ok := f.md.Variable(name)
	if !ok {
		return cosim.Value{}, &cosim.UnknownParameterError{Parameter: name}
	}
	vr := []uint32{v.ValueReference}
	switch v.Type {
	case TypeReal:
		values, err := f.slave.GetReal(vr)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Real(values[0]), nil
	case TypeInteger, TypeEnumeration:
		values, err := f.slave.GetInteger(vr)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Int(int64(values[0])), nil
	case TypeBoolean:
		values, err := f.slave.GetBoolean(vr)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Bool(values[0]), nil
	case TypeString:
		values, err := f.slave.GetString(vr)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Str(values[0]), nil
	}
	return cosim.Value{}, fmt.Errorf("fmu: unsupported variable type %q", v.Type)
}

// DoStep advances the unit's internal solver.
func (f *FMU) DoStep(currentTime, stepSize float64) error {
	return f.slave.DoStep(currentTime, stepSize)
}

// Unit returns the declared unit of a variable, or "".
func (f *FMU) Unit(name string) string {
	if v, ok := f.md.Variable(name); ok {
		return v.Unit
	}
	return ""
}

// Dtype reports the scalar dtype of a variable.
func (f *FMU) Dtype(name string) (cosim.Dtype, error) {
	v, ok := f.md.Variable(name)
	if !ok {
		return 0, &cosim.UnknownParameterError{Parameter: name}
	}
	return v.Type.Dtype()
}

// ConcludeSimulation terminates the unit and frees its instance.
func (f *FMU) ConcludeSimulation() error {
	err := f.slave.Terminate()
	f.slave.FreeInstance()
	if err != nil {
		return fmt.Errorf("fmu %q: terminate: %w", f.name, err)
	}
	return nil
}
