package modules

import (
	"fmt"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Foam tracks a foam surfactant concentration transported with either the
// gas or the water phase, selectable at construction. One equation slot.
type Foam struct {
	base
	carrier fluid.Phase
}

// NewFoam builds the foam module with the given carrier phase (gas or
// water).
func NewFoam(sys *fluid.System, carrier fluid.Phase) (*Foam, error) {
	if carrier != fluid.Gas && carrier != fluid.Water {
		return nil, fmt.Errorf("modules: foam carrier must be gas or water, got %s", carrier)
	}
	if err := requireCarrier(sys, "foam", carrier); err != nil {
		return nil, err
	}
	return &Foam{base: base{sys: sys}, carrier: carrier}, nil
}

func (f *Foam) Name() string      { return "foam" }
func (f *Foam) NumEquations() int { return 1 }

func (f *Foam) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Foam, "foam")
	fs := iq.Fluid
	carrierSurfaceVolume := fs.Saturation(f.carrier).Mul(fs.InvB(f.carrier)).Mul(iq.Porosity)
	storage[f.offset] = storage[f.offset].Add(q.Concentration.Mul(carrierSurfaceVolume))
}

func (f *Foam) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !f.sys.PhaseIsActive(f.carrier) {
		return
	}
	if fc.Face.PotentialDifference[f.carrier] == 0 {
		return
	}
	up, upDof := fc.UpstreamQuantities(f.carrier)
	q := mustQuantities(up.Foam, "foam")
	conc := fc.FocusEval(q.Concentration, upDof)
	flux[f.offset] = flux[f.offset].Add(conc.Mul(fc.SurfaceVolumeFlux(f.carrier)))
}

func (f *Foam) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
