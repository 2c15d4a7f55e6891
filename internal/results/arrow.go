package results

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/san-kum/cosim/internal/cosim"
)

func arrowType(d cosim.Dtype) arrow.DataType {
	switch d {
	case cosim.DtypeBool:
		return arrow.FixedWidthTypes.Boolean
	case cosim.DtypeInt:
		return arrow.PrimitiveTypes.Int64
	case cosim.DtypeReal:
		return arrow.PrimitiveTypes.Float64
	case cosim.DtypeString:
		return arrow.BinaryTypes.String
	}
	return nil
}

// ToArrow materializes the table as an Arrow record whose field types
// mirror the entity-declared dtypes. Units travel in the field
// metadata. The caller owns the returned record and must Release it.
func (t *Table) ToArrow() (arrow.Record, error) {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		dt := arrowType(c.Dtype)
		if dt == nil {
			return nil, fmt.Errorf("results: column %q has unmapped dtype %s", c.Name, c.Dtype)
		}
		var md arrow.Metadata
		if c.Unit != "" {
			md = arrow.NewMetadata([]string{"unit"}, []string{c.Unit})
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Metadata: md}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for i, c := range t.cols {
		switch b := builder.Field(i).(type) {
		case *array.BooleanBuilder:
			for _, v := range c.Values {
				b.Append(v.AsBool())
			}
		case *array.Int64Builder:
			for _, v := range c.Values {
				b.Append(v.AsInt())
			}
		case *array.Float64Builder:
			for _, v := range c.Values {
				b.Append(v.Float())
			}
		case *array.StringBuilder:
			for _, v := range c.Values {
				b.Append(v.AsString())
			}
		default:
			return nil, fmt.Errorf("results: unsupported builder for column %q", c.Name)
		}
	}
	return builder.NewRecord(), nil
}
