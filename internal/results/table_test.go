package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/san-kum/cosim/internal/cosim"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Column{
		{Name: "time", Dtype: cosim.DtypeReal, Unit: "s",
			Values: []cosim.Value{cosim.Real(0), cosim.Real(0.1), cosim.Real(0.2)}},
		{Name: "plant.y", Dtype: cosim.DtypeReal, Unit: "m",
			Values: []cosim.Value{cosim.Real(1), cosim.Real(2), cosim.Real(3)}},
		{Name: "plant.count", Dtype: cosim.DtypeInt,
			Values: []cosim.Value{cosim.Int(10), cosim.Int(11), cosim.Int(12)}},
		{Name: "plant.mode", Dtype: cosim.DtypeString,
			Values: []cosim.Value{cosim.Str("a"), cosim.Str("b"), cosim.Str("c")}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestNewTableRejectsUnevenColumns(t *testing.T) {
	_, err := NewTable([]Column{
		{Name: "time", Dtype: cosim.DtypeReal, Values: []cosim.Value{cosim.Real(0), cosim.Real(1)}},
		{Name: "y", Dtype: cosim.DtypeReal, Values: []cosim.Value{cosim.Real(0)}},
	})
	var lenErr *InconsistentLengthError
	if !errors.As(err, &lenErr) {
		t.Fatalf("expected InconsistentLengthError, got %v", err)
	}
	if lenErr.Column != "y" || lenErr.Len != 1 || lenErr.Want != 2 {
		t.Errorf("unexpected error detail: %+v", lenErr)
	}
}

func TestNewTableRejectsDuplicateNames(t *testing.T) {
	_, err := NewTable([]Column{
		{Name: "y", Dtype: cosim.DtypeReal},
		{Name: "y", Dtype: cosim.DtypeReal},
	})
	if err == nil {
		t.Fatal("expected error for duplicate column name")
	}
}

func TestTableAccessors(t *testing.T) {
	table := sampleTable(t)

	if table.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", table.NumRows())
	}
	if table.NumCols() != 4 {
		t.Errorf("NumCols = %d, want 4", table.NumCols())
	}

	col, ok := table.Column("plant.y")
	if !ok {
		t.Fatal("plant.y not found")
	}
	if col.Unit != "m" {
		t.Errorf("unit = %q, want m", col.Unit)
	}

	if _, ok := table.Column("missing"); ok {
		t.Error("lookup of missing column succeeded")
	}
}

func TestFloat64sWidensInts(t *testing.T) {
	table := sampleTable(t)

	counts, err := table.Float64s("plant.count")
	if err != nil {
		t.Fatalf("Float64s: %v", err)
	}
	want := []float64{10, 11, 12}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("count[%d] = %g, want %g", i, counts[i], want[i])
		}
	}

	if _, err := table.Float64s("plant.mode"); err == nil {
		t.Error("expected error for non-numeric column")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	table := sampleTable(t)

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	back, err := ReadCSV(&buf, table.Meta())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if back.NumRows() != table.NumRows() || back.NumCols() != table.NumCols() {
		t.Fatalf("shape changed: %dx%d -> %dx%d",
			table.NumRows(), table.NumCols(), back.NumRows(), back.NumCols())
	}

	col, ok := back.Column("plant.count")
	if !ok {
		t.Fatal("plant.count lost")
	}
	if col.Dtype != cosim.DtypeInt {
		t.Errorf("plant.count dtype = %s, want int", col.Dtype)
	}
	if col.Values[2].AsInt() != 12 {
		t.Errorf("plant.count[2] = %v, want 12", col.Values[2])
	}

	yCol, _ := back.Column("plant.y")
	if yCol.Unit != "m" {
		t.Errorf("plant.y unit = %q, want m", yCol.Unit)
	}
}

func TestReadCSVRejectsUnknownColumn(t *testing.T) {
	table := sampleTable(t)
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	meta := table.Meta()[:2] // drop metadata for the trailing columns
	if _, err := ReadCSV(&buf, meta); err == nil {
		t.Fatal("expected error for column without recorded dtype")
	}
}

func TestWriteJSON(t *testing.T) {
	table := sampleTable(t)

	var buf bytes.Buffer
	if err := table.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc struct {
		Columns []ColumnMeta     `json:"columns"`
		Rows    int              `json:"rows"`
		Data    map[string][]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Rows != 3 {
		t.Errorf("rows = %d, want 3", doc.Rows)
	}
	if len(doc.Data["plant.mode"]) != 3 || doc.Data["plant.mode"][0] != "a" {
		t.Errorf("plant.mode = %v", doc.Data["plant.mode"])
	}
}
