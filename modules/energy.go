package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Energy adds the energy conservation equation: storage of rock and fluid
// internal energy, advected enthalpy following each phase's upwind decision,
// and heat conduction across the face. One equation slot.
//
// ScalingFactor is a unit convention, not a physical correction: the energy
// equation's source term is multiplied by it after assembly to bring the
// energy residual to the same order of magnitude as the mass residuals.
type Energy struct {
	base
	scalingFactor float64
}

func NewEnergy(sys *fluid.System, scalingFactor float64) (*Energy, error) {
	if scalingFactor == 0 {
		scalingFactor = 1
	}
	return &Energy{base: base{sys: sys}, scalingFactor: scalingFactor}, nil
}

func (e *Energy) Name() string      { return "energy" }
func (e *Energy) NumEquations() int { return 1 }

func (e *Energy) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Energy, "energy")
	fs := iq.Fluid
	acc := q.RockInternalEnergy
	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		if !e.sys.PhaseIsActive(p) {
			continue
		}
		acc = acc.Add(fs.Saturation(p).Mul(fs.Density(p)).
			Mul(q.InternalEnergy[p]).Mul(iq.Porosity))
	}
	storage[e.offset] = storage[e.offset].Add(acc)
}

func (e *Energy) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	face := fc.Face

	// advected enthalpy, upstream-weighted per phase
	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		if !e.sys.PhaseIsActive(p) || face.PotentialDifference[p] == 0 {
			continue
		}
		up, upDof := fc.UpstreamQuantities(p)
		q := mustQuantities(up.Energy, "energy")
		rho := fc.FocusEval(up.Fluid.Density(p), upDof)
		h := fc.FocusEval(q.Enthalpy[p], upDof)
		flux[e.offset] = flux[e.offset].Add(face.VolumeFlux[p].Mul(rho).Mul(h))
	}

	// conduction
	if face.ThermalTransmissibility != 0 {
		tIn := fc.FocusEval(mustQuantities(fc.Interior.Energy, "energy").Temperature, face.Interior)
		tEx := fc.FocusEval(mustQuantities(fc.Exterior.Energy, "energy").Temperature, face.Exterior)
		flux[e.offset] = flux[e.offset].
			Add(tIn.Sub(tEx).Scale(-face.ThermalTransmissibility / face.Area))
	}
}

func (e *Energy) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}

// ScaleSource applies the energy source unit convention.
func (e *Energy) ScaleSource(rate []autodiff.Evaluation) {
	rate[e.offset] = rate[e.offset].Scale(e.scalingFactor)
}
