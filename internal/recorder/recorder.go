// Package recorder captures configured parameters across systems into a
// typed time-series log, one row per completed simulation step.
package recorder

import (
	"fmt"

	"github.com/san-kum/cosim/internal/cosim"
	"github.com/san-kum/cosim/internal/results"
)

// ValueSource is the read-only view of a running simulation the
// recorder pulls from. *cosim.Simulator satisfies it.
type ValueSource interface {
	ParameterValue(system, parameter string) (cosim.Value, error)
	DtypeOf(system, parameter string) (cosim.Dtype, error)
	UnitOf(system, parameter string) string
}

// Recorder owns an append-only column log keyed by fully-qualified
// parameter name plus the reserved "time" column. Dtypes are resolved
// once at construction; entity dtypes are assumed stable for the
// simulator's lifetime.
type Recorder struct {
	src        ValueSource
	parameters []cosim.SystemParameter
	names      []string // column order: time first, then parameters
	dtypes     map[string]cosim.Dtype
	units      map[string]string
	log        map[string][]cosim.Value
	every      int
	step       int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLoggingInterval records only every n-th captured step. The first
// step is always recorded.
func WithLoggingInterval(n int) Option {
	return func(r *Recorder) { r.every = n }
}

// TimeColumn is the reserved name of the time column.
const TimeColumn = "time"

// New resolves the dtype and unit of every configured parameter up
// front. An unknown system or parameter is a configuration error.
func New(src ValueSource, parameters []cosim.SystemParameter, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		src:        src,
		parameters: parameters,
		names:      []string{TimeColumn},
		dtypes:     map[string]cosim.Dtype{TimeColumn: cosim.DtypeReal},
		units:      map[string]string{TimeColumn: "s"},
		log:        map[string][]cosim.Value{TimeColumn: nil},
		every:      1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.every < 1 {
		return nil, fmt.Errorf("recorder: logging interval must be >= 1, got %d", r.every)
	}

	for _, p := range parameters {
		name := p.LogName()
		if _, dup := r.log[name]; dup {
			return nil, fmt.Errorf("recorder: parameter %q configured twice", name)
		}
		dt, err := src.DtypeOf(p.System, p.Parameter)
		if err != nil {
			return nil, err
		}
		r.names = append(r.names, name)
		r.dtypes[name] = dt
		r.units[name] = src.UnitOf(p.System, p.Parameter)
		r.log[name] = nil
	}
	return r, nil
}

// RecordTime appends one value to the time column.
func (r *Recorder) RecordTime(t float64) {
	r.log[TimeColumn] = append(r.log[TimeColumn], cosim.Real(t))
}

// Record appends one value to the named parameter's column.
func (r *Recorder) Record(system, parameter string, value cosim.Value) error {
	name := system + "." + parameter
	if _, ok := r.log[name]; !ok {
		return fmt.Errorf("recorder: parameter %q not configured", name)
	}
	r.log[name] = append(r.log[name], value)
	return nil
}

// Capture pulls the current value of every configured parameter and
// appends one full row stamped with t. Rows outside the logging
// interval are skipped.
func (r *Recorder) Capture(t float64) error {
	step := r.step
	r.step++
	if step%r.every != 0 {
		return nil
	}
	r.RecordTime(t)
	for _, p := range r.parameters {
		value, err := r.src.ParameterValue(p.System, p.Parameter)
		if err != nil {
			return fmt.Errorf("recorder: capture %s: %w", p.LogName(), err)
		}
		if err := r.Record(p.System, p.Parameter, value); err != nil {
			return err
		}
	}
	return nil
}

// Rows reports the number of recorded rows so far.
func (r *Recorder) Rows() int {
	return len(r.log[TimeColumn])
}

// Columns returns the column names in recording order.
func (r *Recorder) Columns() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Dtypes returns the resolved dtype per column.
func (r *Recorder) Dtypes() map[string]cosim.Dtype {
	dtypes := make(map[string]cosim.Dtype, len(r.dtypes))
	for k, v := range r.dtypes {
		dtypes[k] = v
	}
	return dtypes
}

// ToTable materializes the log into a typed table, enforcing the
// column-length invariant.
func (r *Recorder) ToTable() (*results.Table, error) {
	cols := make([]results.Column, len(r.names))
	for i, name := range r.names {
		cols[i] = results.Column{
			Name:   name,
			Dtype:  r.dtypes[name],
			Unit:   r.units[name],
			Values: r.log[name],
		}
	}
	return results.NewTable(cols)
}
