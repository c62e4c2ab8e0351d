package residual

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
)

// ComputeStorage fills storage with the amount of each conserved component
// present in one control volume at the given time level, per unit pore
// volume of rock: saturation times inverse formation volume factor times
// porosity, plus the dissolved/vaporized cross terms carried by the oil and
// gas phases. In true-mass conservation mode every slot is scaled by its
// component's reference density afterwards.
//
// Enabled-but-inactive phases receive a trivial equation pinning their slot
// to zero with a unit diagonal derivative, so the Jacobian stays well-posed.
func (lr *LocalResidual) ComputeStorage(storage []autodiff.Evaluation,
	iq *quantities.Intensive, timeIdx int) {

	lr.checkLen(storage, "storage")
	zero(storage)
	fs := iq.Fluid

	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		if !lr.sys.PhaseIsActive(p) {
			if lr.sys.NumEnabledPhases() == 3 {
				// trivial equation for the enabled-but-inactive phase
				slot := lr.sys.ActiveComponentIndex(p.Component())
				if timeIdx == 0 {
					storage[slot] = autodiff.Variable(0, slot, lr.numEq)
				} else {
					storage[slot] = autodiff.Constant(0)
				}
			}
			continue
		}

		slot := lr.sys.ActiveComponentIndex(p.Component())
		surfaceVolume := fs.Saturation(p).Mul(fs.InvB(p)).Mul(iq.Porosity)
		storage[slot] = storage[slot].Add(surfaceVolume)

		if p == fluid.Oil && lr.sys.DissolvedGasEnabled() {
			gasSlot := lr.sys.ActiveComponentIndex(fluid.GasComponent)
			storage[gasSlot] = storage[gasSlot].Add(fs.Rs().Mul(surfaceVolume))
		}
		if p == fluid.Gas && lr.sys.VaporizedOilEnabled() {
			oilSlot := lr.sys.ActiveComponentIndex(fluid.OilComponent)
			storage[oilSlot] = storage[oilSlot].Add(fs.Rv().Mul(surfaceVolume))
		}
		if p == fluid.Gas && lr.sys.VaporizedWaterEnabled() {
			waterSlot := lr.sys.ActiveComponentIndex(fluid.WaterComponent)
			storage[waterSlot] = storage[waterSlot].Add(fs.Rvw().Mul(surfaceVolume))
		}
	}

	lr.adaptMassConservation(storage, iq.PVTRegion)

	for _, m := range lr.modules {
		m.AddStorage(storage, iq, timeIdx)
	}
}
