// Package models adapts hand-written Go step logic to the
// SimulationEntity contract and ships a small library of ready models.
package models

import (
	"fmt"

	"github.com/san-kum/cosim/internal/cosim"
)

type parameter struct {
	dtype cosim.Dtype
	unit  string
	value cosim.Value
	input bool
}

// Model is the named-parameter registry concrete models embed. It
// implements everything of cosim.SimulationEntity except DoStep, which
// the embedding model provides.
type Model struct {
	params map[string]*parameter
}

// NewModel returns an empty parameter registry.
func NewModel() Model {
	return Model{params: make(map[string]*parameter)}
}

// DeclareInput registers an input parameter with its start value.
func (m *Model) DeclareInput(name string, dtype cosim.Dtype, unit string, start cosim.Value) {
	m.declare(name, dtype, unit, start, true)
}

// DeclareOutput registers an output or internal parameter.
func (m *Model) DeclareOutput(name string, dtype cosim.Dtype, unit string, start cosim.Value) {
	m.declare(name, dtype, unit, start, false)
}

func (m *Model) declare(name string, dtype cosim.Dtype, unit string, start cosim.Value, input bool) {
	if start.Dtype() != dtype {
		start = cosim.Zero(dtype)
	}
	m.params[name] = &parameter{dtype: dtype, unit: unit, value: start, input: input}
}

// Initialize overrides declared start values.
func (m *Model) Initialize(start cosim.StartValues) error {
	for name, value := range start {
		p, ok := m.params[name]
		if !ok {
			return &cosim.UnknownParameterError{Parameter: name}
		}
		converted, err := value.Convert(p.dtype)
		if err != nil {
			return fmt.Errorf("models: start value for %q: %w", name, err)
		}
		p.value = converted
	}
	return nil
}

// SetInput stores a value on a declared input for the next step.
func (m *Model) SetInput(name string, value cosim.Value) error {
	p, ok := m.params[name]
	if !ok || !p.input {
		return &cosim.UnknownParameterError{Parameter: name}
	}
	converted, err := value.Convert(p.dtype)
	if err != nil {
		return err
	}
	p.value = converted
	return nil
}

// ParameterValue returns the current value of any declared parameter.
func (m *Model) ParameterValue(name string) (cosim.Value, error) {
	p, ok := m.params[name]
	if !ok {
		return cosim.Value{}, &cosim.UnknownParameterError{Parameter: name}
	}
	return p.value, nil
}

// Unit returns the declared unit, or "".
func (m *Model) Unit(name string) string {
	if p, ok := m.params[name]; ok {
		return p.unit
	}
	return ""
}

// Dtype returns the declared dtype.
func (m *Model) Dtype(name string) (cosim.Dtype, error) {
	p, ok := m.params[name]
	if !ok {
		return 0, &cosim.UnknownParameterError{Parameter: name}
	}
	return p.dtype, nil
}

// ConcludeSimulation is a no-op; models holding resources override it.
func (m *Model) ConcludeSimulation() error { return nil }

// Float reads a numeric parameter from inside a model's DoStep.
// Undeclared names read as 0.
func (m *Model) Float(name string) float64 {
	if p, ok := m.params[name]; ok {
		return p.value.Float()
	}
	return 0
}

// Set writes a parameter from inside a model's DoStep.
func (m *Model) Set(name string, value cosim.Value) {
	if p, ok := m.params[name]; ok {
		if converted, err := value.Convert(p.dtype); err == nil {
			p.value = converted
		}
	}
}
