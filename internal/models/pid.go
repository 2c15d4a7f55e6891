package models

import "github.com/san-kum/cosim/internal/cosim"

// PID is a discrete PID controller: input u is the measured value,
// output y the control signal driving u toward Target.
type PID struct {
	Model
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	p := &PID{Model: NewModel(), Kp: kp, Ki: ki, Kd: kd, Target: target, first: true}
	p.DeclareInput("u", cosim.DtypeReal, "", cosim.Real(0))
	p.DeclareOutput("y", cosim.DtypeReal, "", cosim.Real(0))
	return p
}

func (p *PID) DoStep(t, stepSize float64) error {
	err := p.Target - p.Float("u")

	if p.first {
		p.prevErr = err
		p.first = false
		p.Set("y", cosim.Real(p.Kp*err))
		return nil
	}

	p.integral += err * stepSize
	derivative := (err - p.prevErr) / stepSize
	p.prevErr = err

	p.Set("y", cosim.Real(p.Kp*err+p.Ki*p.integral+p.Kd*derivative))
	return nil
}
