package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/san-kum/cosim/internal/cosim"
)

// hclFile is the top-level structure of an .hcl scenario file.
type hclFile struct {
	Simulation  *hclSimulation   `hcl:"simulation,block"`
	FMUs        []*hclFMU        `hcl:"fmu,block"`
	Models      []*hclModel      `hcl:"model,block"`
	Connections []*hclConnection `hcl:"connection,block"`
	Logs        []*hclLog        `hcl:"log,block"`
	Starts      []*hclStart      `hcl:"start,block"`
}

type hclSimulation struct {
	StopTime        float64  `hcl:"stop_time"`
	StepSize        float64  `hcl:"step_size"`
	LoggingStepSize *float64 `hcl:"logging_step_size,optional"`
}

type hclFMU struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
}

type hclModel struct {
	Name   string     `hcl:"name,label"`
	Model  string     `hcl:"model"`
	Params *cty.Value `hcl:"params,optional"`
}

type hclConnection struct {
	System          string `hcl:"system"`
	Parameter       string `hcl:"parameter"`
	SourceSystem    string `hcl:"source_system"`
	SourceParameter string `hcl:"source_parameter"`
}

type hclLog struct {
	System     string   `hcl:"system,label"`
	Parameters []string `hcl:"parameters"`
}

type hclStart struct {
	System string     `hcl:"system,label"`
	Values *cty.Value `hcl:"values"`
}

// LoadHCL reads an HCL scenario file into the same Config shape as the
// YAML loader.
func LoadHCL(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %w", path, diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %w", path, diags)
	}

	cfg := DefaultConfig()
	if raw.Simulation != nil {
		cfg.StopTime = raw.Simulation.StopTime
		cfg.StepSize = raw.Simulation.StepSize
		if raw.Simulation.LoggingStepSize != nil {
			cfg.LoggingStepSize = *raw.Simulation.LoggingStepSize
		}
	}

	for _, f := range raw.FMUs {
		if cfg.FMUs == nil {
			cfg.FMUs = make(map[string]FMUConfig)
		}
		cfg.FMUs[f.Name] = FMUConfig{Path: f.Path}
	}
	for _, m := range raw.Models {
		if cfg.Models == nil {
			cfg.Models = make(map[string]ModelConfig)
		}
		params, err := floatMapFromCty(m.Params)
		if err != nil {
			return nil, fmt.Errorf("config: model %q params: %w", m.Name, err)
		}
		cfg.Models[m.Name] = ModelConfig{Model: m.Model, Params: params}
	}
	for _, conn := range raw.Connections {
		if cfg.Connections == nil {
			cfg.Connections = make(map[string][]ConnectionConfig)
		}
		cfg.Connections[conn.System] = append(cfg.Connections[conn.System], ConnectionConfig{
			Parameter:       conn.Parameter,
			SourceSystem:    conn.SourceSystem,
			SourceParameter: conn.SourceParameter,
		})
	}
	for _, l := range raw.Logs {
		if cfg.Log == nil {
			cfg.Log = make(map[string][]string)
		}
		cfg.Log[l.System] = append(cfg.Log[l.System], l.Parameters...)
	}
	for _, s := range raw.Starts {
		if cfg.StartValues == nil {
			cfg.StartValues = make(map[string]map[string]any)
		}
		values, err := anyMapFromCty(s.Values)
		if err != nil {
			return nil, fmt.Errorf("config: start values for %q: %w", s.System, err)
		}
		cfg.StartValues[s.System] = values
	}
	return cfg, nil
}

func floatMapFromCty(v *cty.Value) (map[string]float64, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	out := make(map[string]float64)
	for it := v.ElementIterator(); it.Next(); {
		key, value := it.Element()
		if value.Type() != cty.Number {
			return nil, fmt.Errorf("%q is not a number", key.AsString())
		}
		f, _ := value.AsBigFloat().Float64()
		out[key.AsString()] = f
	}
	return out, nil
}

func anyMapFromCty(v *cty.Value) (map[string]any, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	out := make(map[string]any)
	for it := v.ElementIterator(); it.Next(); {
		key, value := it.Element()
		converted, err := valueFromCty(value)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key.AsString(), err)
		}
		out[key.AsString()] = converted
	}
	return out, nil
}

func valueFromCty(v cty.Value) (any, error) {
	switch v.Type() {
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case cty.String:
		return v.AsString(), nil
	}
	return nil, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
}

// CosimValueFromCty converts a cty scalar into a simulation value.
func CosimValueFromCty(v cty.Value) (cosim.Value, error) {
	raw, err := valueFromCty(v)
	if err != nil {
		return cosim.Value{}, err
	}
	return valueFromAny(raw)
}
