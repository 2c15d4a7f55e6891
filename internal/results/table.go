// Package results holds the typed time-series table produced by a run
// and its export formats.
package results

import (
	"fmt"

	"github.com/san-kum/cosim/internal/cosim"
)

// Column is one logged parameter: its fully-qualified name
// ("system.parameter", or "time"), the entity-declared dtype, the unit
// if known, and one captured value per recorded step.
type Column struct {
	Name   string
	Dtype  cosim.Dtype
	Unit   string
	Values []cosim.Value
}

// Table is a set of equally-sized columns, one row per recorded step.
type Table struct {
	cols   []Column
	byName map[string]int
}

// InconsistentLengthError reports a column whose length diverged from
// the first column's. Tables require equal-length columns; the check
// runs whenever a table is materialized.
type InconsistentLengthError struct {
	Column string
	Len    int
	Want   int
}

func (e *InconsistentLengthError) Error() string {
	return fmt.Sprintf("results: column %q has %d rows, want %d", e.Column, e.Len, e.Want)
}

// NewTable builds a table, verifying the column-length invariant.
func NewTable(cols []Column) (*Table, error) {
	t := &Table{cols: cols, byName: make(map[string]int, len(cols))}
	rows := -1
	for i, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("results: duplicate column %q", c.Name)
		}
		t.byName[c.Name] = i
		if rows < 0 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, &InconsistentLengthError{Column: c.Name, Len: len(c.Values), Want: rows}
		}
	}
	return t, nil
}

// NumRows returns the number of recorded steps.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Values)
}

// NumCols returns the number of columns, including "time".
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in recording order.
func (t *Table) Columns() []Column { return t.cols }

// Names returns the column names in recording order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.cols[i], true
}

// Float64s returns a numeric column as float64s, widening ints.
func (t *Table) Float64s(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("results: no column %q", name)
	}
	if col.Dtype != cosim.DtypeReal && col.Dtype != cosim.DtypeInt {
		return nil, fmt.Errorf("results: column %q is %s, not numeric", name, col.Dtype)
	}
	out := make([]float64, len(col.Values))
	for i, v := range col.Values {
		out[i] = v.Float()
	}
	return out, nil
}
