package modules

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Solvent models a miscible solvent as a fourth pseudo-phase transported
// alongside gas. It owns one equation slot and carries its own saturation,
// formation volume factor and mobility, but reuses the gas phase's potential
// difference for the upwind decision.
type Solvent struct {
	base
}

// NewSolvent builds the solvent module. The gas phase must be enabled.
func NewSolvent(sys *fluid.System) (*Solvent, error) {
	if err := requireCarrier(sys, "solvent", fluid.Gas); err != nil {
		return nil, err
	}
	return &Solvent{base{sys: sys}}, nil
}

func (s *Solvent) Name() string      { return "solvent" }
func (s *Solvent) NumEquations() int { return 1 }

func (s *Solvent) AddStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	q := mustQuantities(iq.Solvent, "solvent")
	storage[s.offset] = storage[s.offset].
		Add(q.Saturation.Mul(q.InvB).Mul(iq.Porosity))
}

func (s *Solvent) ComputeFlux(flux []autodiff.Evaluation, fc *residual.FaceContext) {
	if !s.sys.PhaseIsActive(fluid.Gas) {
		return
	}
	face := fc.Face
	pot := face.Potential[fluid.Gas]
	if pot.Value() == 0 {
		return
	}

	up, upDof := fc.UpstreamQuantities(fluid.Gas)
	q := mustQuantities(up.Solvent, "solvent")
	mob := fc.FocusEval(q.Mobility, upDof)
	transMult := fc.Problem.RockCompTransMultiplier(up, fc.GlobalIndex(upDof))
	if upDof != fc.FocusDof {
		transMult = transMult.Decay()
	}
	darcy := pot.Mul(mob).Mul(transMult).
		Scale(-face.Transmissibility / face.Area)
	invB := fc.FocusEval(q.InvB, upDof)
	flux[s.offset] = flux[s.offset].Add(invB.Mul(darcy))
}

func (s *Solvent) AddSource([]autodiff.Evaluation, *residual.SourceContext) {}
