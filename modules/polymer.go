package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Polymer tracks a polymer concentration dissolved in the water phase,
// transported with the water component's surface-volume flux. One equation
// slot.
type Polymer struct {
	base
}

func NewPolymer(sys *fluid.System) (*Polymer, error) {
	if err := requireCarrier(sys, "polymer", fluid.Water); err != nil {
		return nil, err
	}
	return &Polymer{base{sys: sys}}, nil
}

func (p *Polymer) Name() string      { return "polymer" }
func (p *Polymer) NumEquations() int { return 1 }

func (p *Polymer) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Polymer, "polymer")
	fs := iq.Fluid
	waterSurfaceVolume := fs.Saturation(fluid.Water).Mul(fs.InvB(fluid.Water)).Mul(iq.Porosity)
	storage[p.offset] = storage[p.offset].Add(q.Concentration.Mul(waterSurfaceVolume))
}

func (p *Polymer) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !p.sys.PhaseIsActive(fluid.Water) {
		return
	}
	if fc.Face.PotentialDifference[fluid.Water] == 0 {
		return
	}
	up, upDof := fc.UpstreamQuantities(fluid.Water)
	q := mustQuantities(up.Polymer, "polymer")
	conc := fc.FocusEval(q.Concentration, upDof)
	flux[p.offset] = flux[p.offset].Add(conc.Mul(fc.SurfaceVolumeFlux(fluid.Water)))
}

func (p *Polymer) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
