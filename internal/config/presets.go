package config

// Presets are ready-to-run scenarios built from the built-in models.
var Presets = map[string]*Config{
	"amplifier": {
		StopTime: 3.0, StepSize: 1.0,
		Models: map[string]ModelConfig{
			"source": {Model: "constant", Params: map[string]float64{"value": 2.0}},
			"amp":    {Model: "gain", Params: map[string]float64{"k": 10}},
		},
		Connections: map[string][]ConnectionConfig{
			"amp": {{Parameter: "u", SourceSystem: "source", SourceParameter: "y"}},
		},
		Log: map[string][]string{"source": {"y"}, "amp": {"y"}},
	},
	"lowpass": {
		StopTime: 5.0, StepSize: 0.01,
		Models: map[string]ModelConfig{
			"source": {Model: "constant", Params: map[string]float64{"value": 1.0}},
			"filter": {Model: "first_order", Params: map[string]float64{"k": 1.0, "tau": 0.5}},
		},
		Connections: map[string][]ConnectionConfig{
			"filter": {{Parameter: "u", SourceSystem: "source", SourceParameter: "y"}},
		},
		Log: map[string][]string{"filter": {"y"}},
	},
	"pid_loop": {
		StopTime: 10.0, StepSize: 0.01, LoggingStepSize: 0.1,
		Models: map[string]ModelConfig{
			"controller": {Model: "pid", Params: map[string]float64{"kp": 2.0, "ki": 1.0, "target": 1.0}},
			"plant":      {Model: "first_order", Params: map[string]float64{"k": 1.0, "tau": 1.0}},
		},
		Connections: map[string][]ConnectionConfig{
			"plant":      {{Parameter: "u", SourceSystem: "controller", SourceParameter: "y"}},
			"controller": {{Parameter: "u", SourceSystem: "plant", SourceParameter: "y"}},
		},
		Log: map[string][]string{"plant": {"y"}, "controller": {"y"}},
	},
}
