package models

import "github.com/san-kum/cosim/internal/cosim"

// FirstOrder is a first-order lag dy/dt = (K*u - y) / Tau, integrated
// explicitly within each step.
type FirstOrder struct {
	Model
	K   float64
	Tau float64
}

func NewFirstOrder(k, tau float64) *FirstOrder {
	f := &FirstOrder{Model: NewModel(), K: k, Tau: tau}
	f.DeclareInput("u", cosim.DtypeReal, "", cosim.Real(0))
	f.DeclareOutput("y", cosim.DtypeReal, "", cosim.Real(0))
	return f
}

func (f *FirstOrder) DoStep(t, stepSize float64) error {
	y := f.Float("y")
	y += stepSize * (f.K*f.Float("u") - y) / f.Tau
	f.Set("y", cosim.Real(y))
	return nil
}
