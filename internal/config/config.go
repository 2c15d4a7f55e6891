// Package config holds the scenario configuration: which systems to
// simulate, how they are wired, and what to record. YAML is the primary
// format; an HCL loader lives alongside.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cosim/internal/cosim"
)

const (
	DefaultStopTime = 10.0
	DefaultStepSize = 0.01
)

type Config struct {
	StopTime        float64                       `yaml:"stop_time"`
	StepSize        float64                       `yaml:"step_size"`
	LoggingStepSize float64                       `yaml:"logging_step_size,omitempty"`
	FMUs            map[string]FMUConfig          `yaml:"fmus,omitempty"`
	Models          map[string]ModelConfig        `yaml:"models,omitempty"`
	Connections     map[string][]ConnectionConfig `yaml:"connections,omitempty"`
	Log             map[string][]string           `yaml:"log,omitempty"`
	StartValues     map[string]map[string]any     `yaml:"start_values,omitempty"`
}

type FMUConfig struct {
	Path string `yaml:"path"`
}

type ModelConfig struct {
	Model  string             `yaml:"model"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

type ConnectionConfig struct {
	Parameter       string `yaml:"parameter"`
	SourceSystem    string `yaml:"source_system"`
	SourceParameter string `yaml:"source_parameter"`
}

func DefaultConfig() *Config {
	return &Config{
		StopTime: DefaultStopTime,
		StepSize: DefaultStepSize,
	}
}

// Load reads a YAML scenario file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile dispatches on the file extension: .hcl loads the HCL
// format, everything else is treated as YAML.
func LoadFile(path string) (*Config, error) {
	if filepath.Ext(path) == ".hcl" {
		return LoadHCL(path)
	}
	return Load(path)
}

// SystemNames returns all configured system names, sorted.
func (c *Config) SystemNames() []string {
	names := make([]string, 0, len(c.FMUs)+len(c.Models))
	for name := range c.FMUs {
		names = append(names, name)
	}
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) hasSystem(name string) bool {
	if _, ok := c.FMUs[name]; ok {
		return true
	}
	_, ok := c.Models[name]
	return ok
}

// Validate checks everything that can be checked without constructing
// entities: timing parameters, name uniqueness, and that every system
// referenced by connections, logging or start values is configured.
func (c *Config) Validate() error {
	if c.StopTime <= 0 {
		return fmt.Errorf("config: stop_time must be positive, got %g", c.StopTime)
	}
	if c.StepSize <= 0 || c.StepSize >= c.StopTime {
		return fmt.Errorf("config: step_size must be in (0, %g), got %g", c.StopTime, c.StepSize)
	}
	if len(c.FMUs) == 0 && len(c.Models) == 0 {
		return fmt.Errorf("config: no systems configured")
	}
	for name := range c.FMUs {
		if _, ok := c.Models[name]; ok {
			return fmt.Errorf("config: system name %q used for both an fmu and a model", name)
		}
	}
	if c.LoggingStepSize != 0 {
		ratio := c.LoggingStepSize / c.StepSize
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 || ratio < 1 {
			return fmt.Errorf("config: logging_step_size %g is not a multiple of step_size %g",
				c.LoggingStepSize, c.StepSize)
		}
	}
	for name := range c.Connections {
		if !c.hasSystem(name) {
			return fmt.Errorf("config: connections reference unknown system %q", name)
		}
		for _, conn := range c.Connections[name] {
			if !c.hasSystem(conn.SourceSystem) {
				return fmt.Errorf("config: connections reference unknown system %q", conn.SourceSystem)
			}
		}
	}
	for name := range c.Log {
		if !c.hasSystem(name) {
			return fmt.Errorf("config: log references unknown system %q", name)
		}
	}
	for name := range c.StartValues {
		if !c.hasSystem(name) {
			return fmt.Errorf("config: start_values reference unknown system %q", name)
		}
	}
	return nil
}

// LoggingInterval returns how many steps lie between recorded rows.
func (c *Config) LoggingInterval() int {
	if c.LoggingStepSize == 0 {
		return 1
	}
	return int(math.Round(c.LoggingStepSize / c.StepSize))
}

// ConnectionMap converts the wiring section into the simulator's form.
func (c *Config) ConnectionMap() map[string][]cosim.Connection {
	out := make(map[string][]cosim.Connection, len(c.Connections))
	for name, conns := range c.Connections {
		list := make([]cosim.Connection, len(conns))
		for i, conn := range conns {
			list[i] = cosim.Connection{
				TargetParameter: conn.Parameter,
				SourceSystem:    conn.SourceSystem,
				SourceParameter: conn.SourceParameter,
			}
		}
		out[name] = list
	}
	return out
}

// LoggedParameters flattens the log section in deterministic order.
func (c *Config) LoggedParameters() []cosim.SystemParameter {
	systems := make([]string, 0, len(c.Log))
	for name := range c.Log {
		systems = append(systems, name)
	}
	sort.Strings(systems)

	var params []cosim.SystemParameter
	for _, system := range systems {
		for _, parameter := range c.Log[system] {
			params = append(params, cosim.SystemParameter{System: system, Parameter: parameter})
		}
	}
	return params
}

// SimStartValues converts the start_values section into typed values.
func (c *Config) SimStartValues() (map[string]cosim.StartValues, error) {
	out := make(map[string]cosim.StartValues, len(c.StartValues))
	for system, values := range c.StartValues {
		sv := make(cosim.StartValues, len(values))
		for name, raw := range values {
			v, err := valueFromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("config: start value %s.%s: %w", system, name, err)
			}
			sv[name] = v
		}
		out[system] = sv
	}
	return out, nil
}

func valueFromAny(raw any) (cosim.Value, error) {
	switch v := raw.(type) {
	case bool:
		return cosim.Bool(v), nil
	case int:
		return cosim.Int(int64(v)), nil
	case int64:
		return cosim.Int(v), nil
	case float64:
		return cosim.Real(v), nil
	case string:
		return cosim.Str(v), nil
	}
	return cosim.Value{}, fmt.Errorf("unsupported value type %T", raw)
}
