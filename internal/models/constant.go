package models

import "github.com/san-kum/cosim/internal/cosim"

// Constant emits a fixed value on its output y.
type Constant struct {
	Model
}

func NewConstant(value float64) *Constant {
	c := &Constant{Model: NewModel()}
	c.DeclareOutput("y", cosim.DtypeReal, "", cosim.Real(value))
	return c
}

func (c *Constant) DoStep(t, stepSize float64) error { return nil }
