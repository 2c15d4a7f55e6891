package cosim

// Connection is a declared signal-routing edge: the named output of a
// source system feeds the named input parameter of the system owning
// the connection. Connections are plain data; validation happens when
// the Simulator is built.
type Connection struct {
	TargetParameter string
	SourceSystem    string
	SourceParameter string
}

// System binds a unique name to one exclusively-owned simulation entity
// plus the list of its inbound connections.
type System struct {
	Name        string
	Entity      SimulationEntity
	Connections []Connection
}

// SystemParameter names one parameter of one system, e.g. for the
// recorder configuration.
type SystemParameter struct {
	System    string
	Parameter string
}

// LogName is the fully-qualified column name used by the recorder.
func (p SystemParameter) LogName() string {
	return p.System + "." + p.Parameter
}
