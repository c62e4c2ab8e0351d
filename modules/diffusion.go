package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Diffusion adds Fickian molecular diffusion of the components within their
// phases to the base component equations. It owns no equation slots of its
// own; registered last, so its contributions land on top of the advective
// fluxes.
type Diffusion struct {
	base
}

func NewDiffusion(sys *fluid.System) (*Diffusion, error) {
	return &Diffusion{base{sys: sys}}, nil
}

func (d *Diffusion) Name() string      { return "diffusion" }
func (d *Diffusion) NumEquations() int { return 0 }

func (d *Diffusion) AddStorage([]autodiff.Evaluation, *quantities.Intensive, int) {}

func (d *Diffusion) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	face := fc.Face
	if face.DiffusiveTransmissibility == 0 {
		return
	}
	qIn := mustQuantities(fc.Interior.Diffusion, "diffusion")
	qEx := mustQuantities(fc.Exterior.Diffusion, "diffusion")

	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		if !d.sys.PhaseIsActive(p) {
			continue
		}
		diffusivity := autodiff.Average(
			fc.FocusEval(qIn.Diffusivity[p], face.Interior),
			fc.FocusEval(qEx.Diffusivity[p], face.Exterior))
		if diffusivity.Value() == 0 {
			continue
		}
		molarDensity := autodiff.Average(
			fc.FocusEval(fc.Interior.Fluid.MolarDensity(p), face.Interior),
			fc.FocusEval(fc.Exterior.Fluid.MolarDensity(p), face.Exterior))

		for c := fluid.Component(0); c < fluid.NumComponents; c++ {
			if !d.sys.PhaseIsEnabled(c.Phase()) {
				continue
			}
			xIn := fc.FocusEval(fc.Interior.Fluid.MoleFraction(p, c), face.Interior)
			xEx := fc.FocusEval(fc.Exterior.Fluid.MoleFraction(p, c), face.Exterior)
			grad := xIn.Sub(xEx)
			if grad.Value() == 0 && grad.IsConstant() {
				continue
			}
			rate := grad.Mul(molarDensity).Mul(diffusivity).
				Scale(-face.DiffusiveTransmissibility / face.Area)
			slot := d.sys.ActiveComponentIndex(c)
			if !d.sys.ConserveSurfaceVolume() {
				rate = rate.Scale(d.sys.ReferenceDensity(c, fc.Interior.PVTRegion))
			}
			flux[slot] = flux[slot].Add(rate)
		}
	}
}

func (d *Diffusion) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
