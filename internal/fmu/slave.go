package fmu

// Slave is the boundary to a loaded co-simulation binary. All accessors
// address variables by value reference; the FMU adapter above it owns
// the name translation. Implementations come from an external loader
// (typically a cgo binding to the unit's shared library); tests use an
// in-memory fake.
type Slave interface {
	SetupExperiment(startTime float64) error
	EnterInitializationMode() error
	ExitInitializationMode() error

	SetReal(vrs []uint32, values []float64) error
	GetReal(vrs []uint32) ([]float64, error)
	SetInteger(vrs []uint32, values []int32) error
	GetInteger(vrs []uint32) ([]int32, error)
	SetBoolean(vrs []uint32, values []bool) error
	GetBoolean(vrs []uint32) ([]bool, error)
	SetString(vrs []uint32, values []string) error
	GetString(vrs []uint32) ([]string, error)

	DoStep(currentCommunicationPoint, communicationStepSize float64) error
	Terminate() error
	FreeInstance()
}

// Loader instantiates the binary behind an FMU archive. It is supplied
// by the embedding application; this package never loads binaries
// itself.
type Loader func(md *ModelDescription, fmuPath string) (Slave, error)
