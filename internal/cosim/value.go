package cosim

import (
	"fmt"
	"strconv"
)

// Dtype identifies the scalar type an entity uses to represent a parameter.
type Dtype uint8

const (
	DtypeBool Dtype = iota
	DtypeInt
	DtypeReal
	DtypeString
)

func (d Dtype) String() string {
	switch d {
	case DtypeBool:
		return "bool"
	case DtypeInt:
		return "int"
	case DtypeReal:
		return "real"
	case DtypeString:
		return "string"
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// ParseDtype is the inverse of Dtype.String.
func ParseDtype(s string) (Dtype, error) {
	switch s {
	case "bool":
		return DtypeBool, nil
	case "int":
		return DtypeInt, nil
	case "real":
		return DtypeReal, nil
	case "string":
		return DtypeString, nil
	}
	return 0, fmt.Errorf("cosim: unknown dtype %q", s)
}

// AssignableTo reports whether a value of dtype d may be written to a
// parameter of dtype t without loss. Only identical dtypes and the
// int -> real widening are allowed.
func (d Dtype) AssignableTo(t Dtype) bool {
	if d == t {
		return true
	}
	return d == DtypeInt && t == DtypeReal
}

// Value is a typed scalar exchanged between systems. The zero Value is
// the boolean false.
type Value struct {
	dt Dtype
	b  bool
	i  int64
	f  float64
	s  string
}

func Bool(b bool) Value    { return Value{dt: DtypeBool, b: b} }
func Int(i int64) Value    { return Value{dt: DtypeInt, i: i} }
func Real(f float64) Value { return Value{dt: DtypeReal, f: f} }
func Str(s string) Value   { return Value{dt: DtypeString, s: s} }

// Zero returns the zero value of the given dtype.
func Zero(d Dtype) Value {
	return Value{dt: d}
}

func (v Value) Dtype() Dtype { return v.dt }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsReal() float64  { return v.f }
func (v Value) AsString() string { return v.s }

// Float returns the numeric content of an int or real value.
func (v Value) Float() float64 {
	if v.dt == DtypeInt {
		return float64(v.i)
	}
	return v.f
}

// Convert returns v as dtype t, or an error if the conversion would be
// lossy. The only implicit conversion is int -> real.
func (v Value) Convert(t Dtype) (Value, error) {
	if v.dt == t {
		return v, nil
	}
	if v.dt == DtypeInt && t == DtypeReal {
		return Real(float64(v.i)), nil
	}
	return Value{}, fmt.Errorf("cosim: cannot convert %s value to %s", v.dt, t)
}

func (v Value) String() string {
	switch v.dt {
	case DtypeBool:
		return strconv.FormatBool(v.b)
	case DtypeInt:
		return strconv.FormatInt(v.i, 10)
	case DtypeReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case DtypeString:
		return v.s
	}
	return ""
}
