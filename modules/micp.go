package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// MICP models microbially-induced calcite precipitation with five equation
// slots: suspended microbes, oxygen and urea are transported with the water
// phase; biofilm and calcite are attached to the rock (storage and source
// only). The reaction network is a Monod-limited growth/hydrolysis scheme:
// microbes grow on oxygen, attach to form biofilm, and biofilm hydrolyzes
// urea into calcite.
type MICP struct {
	base
	params MICPParams
}

// MICPParams are the kinetic coefficients of the reaction network.
type MICPParams struct {
	GrowthRate           float64 // maximum specific microbial growth rate
	HalfSaturationOxygen float64 // Monod half saturation for oxygen
	YieldCoefficient     float64 // biomass produced per oxygen consumed
	DecayRate            float64 // biofilm decay rate
	AttachmentRate       float64 // suspended microbes -> biofilm
	DetachmentRate       float64 // biofilm -> suspended microbes
	UreaHydrolysisRate   float64 // maximum urea hydrolysis rate of biofilm
	HalfSaturationUrea   float64 // Monod half saturation for urea
}

// DefaultMICPParams returns kinetic coefficients of the right order of
// magnitude for laboratory-scale columns.
func DefaultMICPParams() MICPParams {
	return MICPParams{
		GrowthRate:           4.17e-5,
		HalfSaturationOxygen: 2e-2,
		YieldCoefficient:     0.5,
		DecayRate:            3.18e-7,
		AttachmentRate:       8.51e-7,
		DetachmentRate:       2.92e-8,
		UreaHydrolysisRate:   1.61e-5,
		HalfSaturationUrea:   21.3,
	}
}

const (
	micpMicrobesEq = iota
	micpOxygenEq
	micpUreaEq
	micpBiofilmEq
	micpCalciteEq
	micpNumEq
)

func NewMICP(sys *fluid.System, params MICPParams) (*MICP, error) {
	if err := requireCarrier(sys, "micp", fluid.Water); err != nil {
		return nil, err
	}
	return &MICP{base: base{sys: sys}, params: params}, nil
}

func (m *MICP) Name() string      { return "micp" }
func (m *MICP) NumEquations() int { return micpNumEq }

func (m *MICP) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.MICP, "micp")
	fs := iq.Fluid
	// suspended quantities live in the water-filled pore space
	waterVolume := fs.Saturation(fluid.Water).Mul(iq.Porosity)
	add := func(eq int, v autodiff.Evaluation) {
		storage[m.offset+eq] = storage[m.offset+eq].Add(v)
	}
	add(micpMicrobesEq, q.Microbes.Mul(waterVolume))
	add(micpOxygenEq, q.Oxygen.Mul(waterVolume))
	add(micpUreaEq, q.Urea.Mul(waterVolume))
	// attached quantities are volume fractions of the bulk
	add(micpBiofilmEq, q.Biofilm)
	add(micpCalciteEq, q.Calcite)
}

func (m *MICP) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !m.sys.PhaseIsActive(fluid.Water) {
		return
	}
	if fc.Face.PotentialDifference[fluid.Water] == 0 {
		return
	}
	up, upDof := fc.UpstreamQuantities(fluid.Water)
	q := mustQuantities(up.MICP, "micp")
	waterFlux := fc.Face.VolumeFlux[fluid.Water]

	add := func(eq int, conc autodiff.Evaluation) {
		flux[m.offset+eq] = flux[m.offset+eq].
			Add(fc.FocusEval(conc, upDof).Mul(waterFlux))
	}
	add(micpMicrobesEq, q.Microbes)
	add(micpOxygenEq, q.Oxygen)
	add(micpUreaEq, q.Urea)
}

func (m *MICP) AddSource(rate []autodiff.Evaluation, sc *residual.SourceContext) {
	q := mustQuantities(sc.Intensive.MICP, "micp")
	p := m.params

	// Monod-limited microbial growth on oxygen
	monodOxygen := q.Oxygen.Div(q.Oxygen.Shift(p.HalfSaturationOxygen))
	growth := q.Microbes.Mul(monodOxygen).Scale(p.GrowthRate)

	attachment := q.Microbes.Scale(p.AttachmentRate)
	detachment := q.Biofilm.Scale(p.DetachmentRate)

	// urea hydrolysis by biofilm precipitates calcite
	monodUrea := q.Urea.Div(q.Urea.Shift(p.HalfSaturationUrea))
	hydrolysis := q.Biofilm.Mul(monodUrea).Scale(p.UreaHydrolysisRate)

	add := func(eq int, v autodiff.Evaluation) {
		rate[m.offset+eq] = rate[m.offset+eq].Add(v)
	}
	add(micpMicrobesEq, growth.Sub(attachment).Add(detachment))
	add(micpOxygenEq, growth.Scale(-1/p.YieldCoefficient))
	add(micpUreaEq, hydrolysis.Neg())
	add(micpBiofilmEq, attachment.Sub(detachment).Sub(q.Biofilm.Scale(p.DecayRate)))
	add(micpCalciteEq, hydrolysis)
}
