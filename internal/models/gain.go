package models

import "github.com/san-kum/cosim/internal/cosim"

// Gain scales its input u by a constant factor K onto its output y.
type Gain struct {
	Model
	K float64
}

func NewGain(k float64) *Gain {
	g := &Gain{Model: NewModel(), K: k}
	g.DeclareInput("u", cosim.DtypeReal, "", cosim.Real(0))
	g.DeclareOutput("y", cosim.DtypeReal, "", cosim.Real(0))
	return g
}

func (g *Gain) DoStep(t, stepSize float64) error {
	g.Set("y", cosim.Real(g.K*g.Float("u")))
	return nil
}
