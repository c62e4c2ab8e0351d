package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Brine tracks the salt concentration of the water phase, transported with
// the water component's surface-volume flux. One equation slot.
type Brine struct {
	base
}

func NewBrine(sys *fluid.System) (*Brine, error) {
	if err := requireCarrier(sys, "brine", fluid.Water); err != nil {
		return nil, err
	}
	return &Brine{base{sys: sys}}, nil
}

func (b *Brine) Name() string      { return "brine" }
func (b *Brine) NumEquations() int { return 1 }

func (b *Brine) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Brine, "brine")
	fs := iq.Fluid
	waterSurfaceVolume := fs.Saturation(fluid.Water).Mul(fs.InvB(fluid.Water)).Mul(iq.Porosity)
	storage[b.offset] = storage[b.offset].Add(q.SaltConcentration.Mul(waterSurfaceVolume))
}

func (b *Brine) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !b.sys.PhaseIsActive(fluid.Water) {
		return
	}
	if fc.Face.PotentialDifference[fluid.Water] == 0 {
		return
	}
	up, upDof := fc.UpstreamQuantities(fluid.Water)
	q := mustQuantities(up.Brine, "brine")
	salt := fc.FocusEval(q.SaltConcentration, upDof)
	flux[b.offset] = flux[b.offset].Add(salt.Mul(fc.SurfaceVolumeFlux(fluid.Water)))
}

func (b *Brine) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
