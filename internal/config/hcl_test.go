package config

import (
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/san-kum/cosim/internal/cosim"
)

const sampleHCL = `simulation {
  stop_time         = 5.0
  step_size         = 0.1
  logging_step_size = 0.5
}

fmu "motor" {
  path = "motor.fmu"
}

model "controller" {
  model  = "pid"
  params = {
    kp     = 2.0
    target = 100
  }
}

connection {
  system           = "motor"
  parameter        = "u"
  source_system    = "controller"
  source_parameter = "y"
}

log "motor" {
  parameters = ["speed"]
}

start "motor" {
  values = {
    poles   = 4
    enabled = true
    label   = "bench"
  }
}
`

func TestLoadHCL(t *testing.T) {
	cfg, err := LoadHCL(writeFile(t, "scenario.hcl", sampleHCL))
	if err != nil {
		t.Fatalf("LoadHCL: %v", err)
	}

	if cfg.StopTime != 5.0 || cfg.StepSize != 0.1 || cfg.LoggingStepSize != 0.5 {
		t.Errorf("timing = %g/%g/%g", cfg.StopTime, cfg.StepSize, cfg.LoggingStepSize)
	}
	if cfg.FMUs["motor"].Path != "motor.fmu" {
		t.Errorf("fmu path = %q", cfg.FMUs["motor"].Path)
	}

	controller := cfg.Models["controller"]
	if controller.Model != "pid" {
		t.Errorf("model = %q", controller.Model)
	}
	if controller.Params["kp"] != 2.0 || controller.Params["target"] != 100 {
		t.Errorf("params = %v", controller.Params)
	}

	conns := cfg.Connections["motor"]
	if len(conns) != 1 || conns[0].SourceSystem != "controller" {
		t.Errorf("connections = %v", conns)
	}

	if len(cfg.Log["motor"]) != 1 || cfg.Log["motor"][0] != "speed" {
		t.Errorf("log = %v", cfg.Log)
	}

	start := cfg.StartValues["motor"]
	if start["poles"] != int64(4) {
		t.Errorf("poles = %v (%T)", start["poles"], start["poles"])
	}
	if start["enabled"] != true {
		t.Errorf("enabled = %v", start["enabled"])
	}
	if start["label"] != "bench" {
		t.Errorf("label = %v", start["label"])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadHCLParseError(t *testing.T) {
	if _, err := LoadHCL(writeFile(t, "broken.hcl", "simulation {")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFileDispatchesHCL(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "scenario.hcl", sampleHCL))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.StopTime != 5.0 {
		t.Errorf("stop_time = %g", cfg.StopTime)
	}
}

func TestCosimValueFromCty(t *testing.T) {
	tests := []struct {
		name string
		in   cty.Value
		want cosim.Value
	}{
		{"bool", cty.True, cosim.Bool(true)},
		{"int", cty.NumberIntVal(4), cosim.Int(4)},
		{"real", cty.NumberFloatVal(1.5), cosim.Real(1.5)},
		{"string", cty.StringVal("x"), cosim.Str("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosimValueFromCty(tt.in)
			if err != nil {
				t.Fatalf("CosimValueFromCty: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := CosimValueFromCty(cty.ListValEmpty(cty.String)); err == nil {
		t.Error("expected error for non-scalar value")
	}
}
