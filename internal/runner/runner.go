// Package runner assembles a simulator and recorder from a scenario
// config and drives the fixed-step loop.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/cosim/internal/config"
	"github.com/san-kum/cosim/internal/cosim"
	"github.com/san-kum/cosim/internal/fmu"
	"github.com/san-kum/cosim/internal/models"
	"github.com/san-kum/cosim/internal/recorder"
	"github.com/san-kum/cosim/internal/results"
)

// NamedValue pairs a fully-qualified parameter name with its value at
// one step.
type NamedValue struct {
	Name  string
	Value cosim.Value
}

// StepEvent describes one completed step for observers such as the
// live view.
type StepEvent struct {
	Step   int
	Time   float64
	Values []NamedValue
}

// Options carries the collaborators the runner needs. Registry defaults
// to the built-in model registry; Loader may stay nil when the scenario
// has no FMUs.
type Options struct {
	Logger   *slog.Logger
	Registry *models.Registry
	Loader   fmu.Loader
	Observer func(StepEvent)
}

// Build constructs entities, wires the simulator, applies start values
// and prepares the recorder. The returned simulator is Ready.
func Build(cfg *config.Config, opts Options) (*cosim.Simulator, *recorder.Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = models.NewRegistry()
	}

	entities := make(map[string]cosim.SimulationEntity, len(cfg.FMUs)+len(cfg.Models))

	fmuNames := make([]string, 0, len(cfg.FMUs))
	for name := range cfg.FMUs {
		fmuNames = append(fmuNames, name)
	}
	sort.Strings(fmuNames)
	for _, name := range fmuNames {
		entity, err := fmu.New(name, cfg.FMUs[name].Path, opts.Loader)
		if err != nil {
			return nil, nil, err
		}
		entities[name] = entity
		logger.Info("fmu initialized", "system", name, "path", cfg.FMUs[name].Path)
	}

	modelNames := make([]string, 0, len(cfg.Models))
	for name := range cfg.Models {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)
	for _, name := range modelNames {
		mc := cfg.Models[name]
		entity, err := registry.Get(mc.Model, mc.Params)
		if err != nil {
			return nil, nil, fmt.Errorf("runner: system %q: %w", name, err)
		}
		entities[name] = entity
		logger.Info("model initialized", "system", name, "model", mc.Model)
	}

	sim, err := cosim.New(entities, cfg.ConnectionMap(), cosim.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	start, err := cfg.SimStartValues()
	if err != nil {
		return nil, nil, err
	}
	if err := sim.Initialize(start); err != nil {
		return nil, nil, err
	}

	rec, err := recorder.New(sim, cfg.LoggedParameters(),
		recorder.WithLoggingInterval(cfg.LoggingInterval()))
	if err != nil {
		return nil, nil, err
	}
	return sim, rec, nil
}

// Run builds the scenario, drives it to its stop time and returns the
// typed result table. Entities are always given their teardown chance,
// whether the run succeeds or fails mid-step.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*results.Table, error) {
	sim, rec, err := Build(cfg, opts)
	if err != nil {
		return nil, err
	}

	parameters := cfg.LoggedParameters()
	runErr := sim.Run(ctx, cfg.StopTime, cfg.StepSize, func(step int) error {
		if err := rec.Capture(sim.Time()); err != nil {
			return err
		}
		if opts.Observer != nil {
			event := StepEvent{Step: step, Time: sim.Time()}
			for _, p := range parameters {
				if v, err := sim.ParameterValue(p.System, p.Parameter); err == nil {
					event.Values = append(event.Values, NamedValue{Name: p.LogName(), Value: v})
				}
			}
			opts.Observer(event)
		}
		return nil
	})

	if sim.State() == cosim.StateRunning || sim.State() == cosim.StateReady {
		if err := sim.ConcludeSimulation(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return rec.ToTable()
}
