package cosim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cosim/internal/cosim"
	"github.com/san-kum/cosim/internal/models"
)

// stubEntity is a minimal entity with one string input, used to provoke
// dtype and teardown failures the built-in models cannot produce.
type stubEntity struct {
	models.Model
	concludeErr error
	concluded   bool
}

func newStubEntity() *stubEntity {
	s := &stubEntity{Model: models.NewModel()}
	s.DeclareInput("mode", cosim.DtypeString, "", cosim.Str("idle"))
	s.DeclareOutput("label", cosim.DtypeString, "", cosim.Str(""))
	return s
}

func (s *stubEntity) DoStep(t, stepSize float64) error { return nil }

func (s *stubEntity) ConcludeSimulation() error {
	s.concluded = true
	return s.concludeErr
}

type failingStepper struct {
	models.Model
}

func newFailingStepper() *failingStepper {
	f := &failingStepper{Model: models.NewModel()}
	f.DeclareOutput("y", cosim.DtypeReal, "", cosim.Real(0))
	return f
}

func (f *failingStepper) DoStep(t, stepSize float64) error {
	return errors.New("solver diverged")
}

var _ = Describe("Simulator", func() {
	Describe("wiring validation", func() {
		It("rejects a connection naming an unknown source system", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{"sink": models.NewGain(1)},
				map[string][]cosim.Connection{
					"sink": {{TargetParameter: "u", SourceSystem: "ghost", SourceParameter: "y"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrUnknownSystem))

			var cfgErr *cosim.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.System).To(Equal("ghost"))
		})

		It("rejects connections under an unknown target system", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{"src": models.NewConstant(1)},
				map[string][]cosim.Connection{
					"nowhere": {{TargetParameter: "u", SourceSystem: "src", SourceParameter: "y"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrUnknownSystem))
		})

		It("rejects an unknown target parameter", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{
					"src":  models.NewConstant(1),
					"sink": models.NewGain(1),
				},
				map[string][]cosim.Connection{
					"sink": {{TargetParameter: "nope", SourceSystem: "src", SourceParameter: "y"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrUnknownParameter))
		})

		It("rejects an unknown source parameter", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{
					"src":  models.NewConstant(1),
					"sink": models.NewGain(1),
				},
				map[string][]cosim.Connection{
					"sink": {{TargetParameter: "u", SourceSystem: "src", SourceParameter: "nope"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrUnknownParameter))
		})

		It("rejects two connections feeding the same input", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{
					"a":    models.NewConstant(1),
					"b":    models.NewConstant(2),
					"sink": models.NewGain(1),
				},
				map[string][]cosim.Connection{
					"sink": {
						{TargetParameter: "u", SourceSystem: "a", SourceParameter: "y"},
						{TargetParameter: "u", SourceSystem: "b", SourceParameter: "y"},
					},
				},
			)
			Expect(err).To(MatchError(cosim.ErrDuplicateConnection))
		})

		It("rejects a system feeding itself", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{"loop": models.NewGain(1)},
				map[string][]cosim.Connection{
					"loop": {{TargetParameter: "u", SourceSystem: "loop", SourceParameter: "y"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrSelfConnection))
		})

		It("rejects incompatible parameter dtypes", func() {
			_, err := cosim.New(
				map[string]cosim.SimulationEntity{
					"src":  models.NewConstant(1),
					"sink": newStubEntity(),
				},
				map[string][]cosim.Connection{
					"sink": {{TargetParameter: "mode", SourceSystem: "src", SourceParameter: "y"}},
				},
			)
			Expect(err).To(MatchError(cosim.ErrDtypeMismatch))
		})

		It("accepts a cycle between two systems", func() {
			sim, err := cosim.New(
				map[string]cosim.SimulationEntity{
					"a": models.NewGain(1),
					"b": models.NewGain(1),
				},
				map[string][]cosim.Connection{
					"a": {{TargetParameter: "u", SourceSystem: "b", SourceParameter: "y"}},
					"b": {{TargetParameter: "u", SourceSystem: "a", SourceParameter: "y"}},
				},
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim).NotTo(BeNil())
		})
	})

	Describe("lifecycle", func() {
		var sim *cosim.Simulator

		BeforeEach(func() {
			var err error
			sim, err = cosim.New(
				map[string]cosim.SimulationEntity{"src": models.NewConstant(1)},
				nil,
			)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts uninitialized", func() {
			Expect(sim.State()).To(Equal(cosim.StateUninitialized))
			Expect(sim.Time()).To(BeZero())
		})

		It("refuses to step before Start", func() {
			var stateErr *cosim.InvalidSimulatorStateError
			Expect(errors.As(sim.DoStep(0, 0.1), &stateErr)).To(BeTrue())
			Expect(stateErr.Op).To(Equal("DoStep"))
		})

		It("refuses Start before Initialize", func() {
			var stateErr *cosim.InvalidSimulatorStateError
			Expect(errors.As(sim.Start(), &stateErr)).To(BeTrue())
		})

		It("refuses a second Initialize", func() {
			Expect(sim.Initialize(nil)).To(Succeed())
			var stateErr *cosim.InvalidSimulatorStateError
			Expect(errors.As(sim.Initialize(nil), &stateErr)).To(BeTrue())
		})

		It("rejects start values for an unknown system", func() {
			err := sim.Initialize(map[string]cosim.StartValues{
				"ghost": {"y": cosim.Real(1)},
			})
			Expect(err).To(MatchError(cosim.ErrUnknownSystem))
		})

		It("walks ready -> running -> concluded", func() {
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.State()).To(Equal(cosim.StateReady))
			Expect(sim.Start()).To(Succeed())
			Expect(sim.State()).To(Equal(cosim.StateRunning))
			Expect(sim.ConcludeSimulation()).To(Succeed())
			Expect(sim.State()).To(Equal(cosim.StateConcluded))
		})

		It("refuses to step after conclusion", func() {
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.ConcludeSimulation()).To(Succeed())
			var stateErr *cosim.InvalidSimulatorStateError
			Expect(errors.As(sim.DoStep(0, 0.1), &stateErr)).To(BeTrue())
			Expect(errors.As(sim.ConcludeSimulation(), &stateErr)).To(BeTrue())
		})
	})

	Describe("stepping and propagation", func() {
		It("delivers a source output one step late", func() {
			source := models.NewConstant(2.0)
			amp := models.NewGain(10)

			sim, err := cosim.New(
				map[string]cosim.SimulationEntity{"source": source, "amp": amp},
				map[string][]cosim.Connection{
					"amp": {{TargetParameter: "u", SourceSystem: "source", SourceParameter: "y"}},
				},
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.Start()).To(Succeed())

			// Step 0 still sees amp's initial input of zero.
			Expect(sim.DoStep(0, 1)).To(Succeed())
			v, err := sim.ParameterValue("amp", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.AsReal()).To(BeZero())

			Expect(sim.SetSystemsInputs()).To(Succeed())
			Expect(sim.DoStep(1, 1)).To(Succeed())
			v, err = sim.ParameterValue("amp", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.AsReal()).To(BeNumerically("==", 20.0))

			Expect(sim.SetSystemsInputs()).To(Succeed())
			Expect(sim.DoStep(2, 1)).To(Succeed())
			v, err = sim.ParameterValue("amp", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.AsReal()).To(BeNumerically("==", 20.0))

			Expect(sim.Time()).To(BeNumerically("==", 3.0))
		})

		It("advances time by the step size", func() {
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"src": models.NewConstant(1)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.Start()).To(Succeed())

			Expect(sim.DoStep(0, 0.25)).To(Succeed())
			Expect(sim.Time()).To(BeNumerically("~", 0.25, 1e-12))
			Expect(sim.DoStep(0.25, 0.25)).To(Succeed())
			Expect(sim.Time()).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("reads are idempotent within a step", func() {
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"src": models.NewConstant(7)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.Start()).To(Succeed())
			Expect(sim.DoStep(0, 1)).To(Succeed())

			first, err := sim.ParameterValue("src", "y")
			Expect(err).NotTo(HaveOccurred())
			second, err := sim.ParameterValue("src", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("wraps an entity step failure with system and time", func() {
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"bad": newFailingStepper()}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.Start()).To(Succeed())

			stepErr := sim.DoStep(1.5, 0.5)
			var simErr *cosim.SimulationStepError
			Expect(errors.As(stepErr, &simErr)).To(BeTrue())
			Expect(simErr.System).To(Equal("bad"))
			Expect(simErr.Time).To(BeNumerically("==", 1.5))
		})

		It("applies start values before the first step", func() {
			amp := models.NewGain(3)
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"amp": amp}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(map[string]cosim.StartValues{
				"amp": {"u": cosim.Real(2)},
			})).To(Succeed())
			Expect(sim.Start()).To(Succeed())
			Expect(sim.DoStep(0, 1)).To(Succeed())

			v, err := sim.ParameterValue("amp", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.AsReal()).To(BeNumerically("==", 6.0))
		})
	})

	Describe("conclusion", func() {
		It("tears down the remaining entities when one fails", func() {
			bad := newStubEntity()
			bad.concludeErr = errors.New("handle leaked")
			good := newStubEntity()

			sim, err := cosim.New(map[string]cosim.SimulationEntity{"bad": bad, "good": good}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())
			Expect(sim.Start()).To(Succeed())

			Expect(sim.ConcludeSimulation()).To(Succeed())
			Expect(bad.concluded).To(BeTrue())
			Expect(good.concluded).To(BeTrue())
			Expect(sim.State()).To(Equal(cosim.StateConcluded))
		})
	})

	Describe("Run", func() {
		It("drives the whole loop and reports each step", func() {
			source := models.NewConstant(2.0)
			amp := models.NewGain(10)
			sim, err := cosim.New(
				map[string]cosim.SimulationEntity{"source": source, "amp": amp},
				map[string][]cosim.Connection{
					"amp": {{TargetParameter: "u", SourceSystem: "source", SourceParameter: "y"}},
				},
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())

			var outputs []float64
			err = sim.Run(context.Background(), 3, 1, func(step int) error {
				v, err := sim.ParameterValue("amp", "y")
				if err != nil {
					return err
				}
				outputs = append(outputs, v.AsReal())
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outputs).To(Equal([]float64{0, 20, 20}))
			Expect(sim.Time()).To(BeNumerically("==", 3.0))
			Expect(sim.State()).To(Equal(cosim.StateRunning))
		})

		It("rejects non-positive timing", func() {
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"src": models.NewConstant(1)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())

			Expect(sim.Run(context.Background(), 1, 0, nil)).To(HaveOccurred())
			Expect(sim.Run(context.Background(), 0, 0.1, nil)).To(HaveOccurred())
		})

		It("stops when the context is cancelled", func() {
			sim, err := cosim.New(map[string]cosim.SimulationEntity{"src": models.NewConstant(1)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Initialize(nil)).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(sim.Run(ctx, 10, 0.1, nil)).To(MatchError(context.Canceled))
		})
	})
})
