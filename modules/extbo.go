package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Extbo is the extended black-oil module: it tracks the fraction of an
// injected component inside the gas (z-fraction), riding the gas component's
// surface-volume transport. One equation slot.
type Extbo struct {
	base
}

func NewExtbo(sys *fluid.System) (*Extbo, error) {
	if err := requireCarrier(sys, "extbo", fluid.Gas); err != nil {
		return nil, err
	}
	return &Extbo{base{sys: sys}}, nil
}

func (e *Extbo) Name() string      { return "extbo" }
func (e *Extbo) NumEquations() int { return 1 }

func (e *Extbo) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Extbo, "extbo")
	fs := iq.Fluid
	gasSurfaceVolume := fs.Saturation(fluid.Gas).Mul(fs.InvB(fluid.Gas)).Mul(iq.Porosity)
	storage[e.offset] = storage[e.offset].Add(q.ZFraction.Mul(gasSurfaceVolume))
}

func (e *Extbo) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !e.sys.PhaseIsActive(fluid.Gas) {
		return
	}
	if fc.Face.PotentialDifference[fluid.Gas] == 0 {
		return
	}
	up, upDof := fc.UpstreamQuantities(fluid.Gas)
	q := mustQuantities(up.Extbo, "extbo")
	z := fc.FocusEval(q.ZFraction, upDof)
	flux[e.offset] = flux[e.offset].Add(z.Mul(fc.SurfaceVolumeFlux(fluid.Gas)))
}

func (e *Extbo) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
