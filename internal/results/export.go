package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/cosim/internal/cosim"
)

// WriteCSV writes the table with a header row of column names.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	row := make([]string, len(t.cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			row[j] = c.Values[i].String()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ColumnMeta is the persisted shape of a column's type information,
// stored alongside CSV data so a table can be read back fully typed.
type ColumnMeta struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
	Unit  string `json:"unit,omitempty"`
}

// Meta returns the type information for every column.
func (t *Table) Meta() []ColumnMeta {
	meta := make([]ColumnMeta, len(t.cols))
	for i, c := range t.cols {
		meta[i] = ColumnMeta{Name: c.Name, Dtype: c.Dtype.String(), Unit: c.Unit}
	}
	return meta
}

// ReadCSV reads a table written by WriteCSV, typing each column
// according to meta. Columns missing from meta fail.
func ReadCSV(r io.Reader, meta []ColumnMeta) (*Table, error) {
	dtypes := make(map[string]cosim.Dtype, len(meta))
	units := make(map[string]string, len(meta))
	for _, m := range meta {
		dt, err := cosim.ParseDtype(m.Dtype)
		if err != nil {
			return nil, err
		}
		dtypes[m.Name] = dt
		units[m.Name] = m.Unit
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("results: read csv header: %w", err)
	}
	cols := make([]Column, len(header))
	for i, name := range header {
		dt, ok := dtypes[name]
		if !ok {
			return nil, fmt.Errorf("results: no dtype recorded for column %q", name)
		}
		cols[i] = Column{Name: name, Dtype: dt, Unit: units[name]}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, field := range record {
			v, err := parseValue(field, cols[i].Dtype)
			if err != nil {
				return nil, fmt.Errorf("results: column %q: %w", cols[i].Name, err)
			}
			cols[i].Values = append(cols[i].Values, v)
		}
	}
	return NewTable(cols)
}

func parseValue(s string, d cosim.Dtype) (cosim.Value, error) {
	switch d {
	case cosim.DtypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Bool(b), nil
	case cosim.DtypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Int(i), nil
	case cosim.DtypeReal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return cosim.Value{}, err
		}
		return cosim.Real(f), nil
	case cosim.DtypeString:
		return cosim.Str(s), nil
	}
	return cosim.Value{}, fmt.Errorf("unmapped dtype %s", d)
}

type exportData struct {
	Columns []ColumnMeta     `json:"columns"`
	Rows    int              `json:"rows"`
	Data    map[string][]any `json:"data"`
}

// WriteJSON writes the table as a column-keyed JSON document.
func (t *Table) WriteJSON(w io.Writer) error {
	data := exportData{
		Columns: t.Meta(),
		Rows:    t.NumRows(),
		Data:    make(map[string][]any, len(t.cols)),
	}
	for _, c := range t.cols {
		values := make([]any, len(c.Values))
		for i, v := range c.Values {
			switch c.Dtype {
			case cosim.DtypeBool:
				values[i] = v.AsBool()
			case cosim.DtypeInt:
				values[i] = v.AsInt()
			case cosim.DtypeReal:
				values[i] = v.Float()
			default:
				values[i] = v.AsString()
			}
		}
		data.Data[c.Name] = values
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
