package cosim

// StartValues maps parameter names to the values applied during
// entity initialization.
type StartValues map[string]Value

// SimulationEntity is the capability contract every simulated model
// satisfies, whether it wraps a compiled co-simulation unit or
// hand-written Go logic. The Simulator never looks past this interface.
//
// SetInput stores a value for use by the next DoStep; it must not touch
// the entity's solver state. ParameterValue returns the current value of
// any declared parameter and must be idempotent between DoStep calls.
// Unit returns "" when the entity carries no unit metadata for the
// parameter. Dtype reports the scalar type the entity uses to represent
// the parameter and is assumed stable for the entity's lifetime.
type SimulationEntity interface {
	Initialize(start StartValues) error
	SetInput(name string, value Value) error
	DoStep(currentTime, stepSize float64) error
	ParameterValue(name string) (Value, error)
	Unit(name string) string
	Dtype(name string) (Dtype, error)
	ConcludeSimulation() error
}
