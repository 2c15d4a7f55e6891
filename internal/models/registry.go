package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/cosim/internal/cosim"
)

// Factory builds a model from the numeric parameters of a scenario
// config.
type Factory func(params map[string]float64) (cosim.SimulationEntity, error)

// Registry maps model names used in scenario configs to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the built-in models.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register("constant", func(params map[string]float64) (cosim.SimulationEntity, error) {
		return NewConstant(params["value"]), nil
	})
	r.Register("gain", func(params map[string]float64) (cosim.SimulationEntity, error) {
		k, ok := params["k"]
		if !ok {
			k = 1.0
		}
		return NewGain(k), nil
	})
	r.Register("first_order", func(params map[string]float64) (cosim.SimulationEntity, error) {
		k, ok := params["k"]
		if !ok {
			k = 1.0
		}
		tau := params["tau"]
		if tau <= 0 {
			return nil, fmt.Errorf("models: first_order needs tau > 0, got %g", tau)
		}
		return NewFirstOrder(k, tau), nil
	})
	r.Register("pid", func(params map[string]float64) (cosim.SimulationEntity, error) {
		return NewPID(params["kp"], params["ki"], params["kd"], params["target"]), nil
	})

	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get builds the named model.
func (r *Registry) Get(name string, params map[string]float64) (cosim.SimulationEntity, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("models: unknown model %q", name)
	}
	return f(params)
}

// List returns the registered model names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
