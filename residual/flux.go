package residual

import (
	"math"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
)

// ComputeFlux fills flux with the advective exchange of every conserved
// component across one face, per unit face area, and records the per-phase
// upwind decision and potential difference in the face bundle.
//
// For each active phase the signed potential difference (pressure difference
// minus the gravity head of the density-averaged column, with the threshold
// pressure barrier subtracted) decides the upstream cell; the Darcy flux is
// weighted with the upstream mobility and converted to a surface-volume flux
// with the upstream inverse formation volume factor. Derivatives of the
// upstream properties are kept only when the upstream cell is the focus
// cell; the potential difference always carries whatever derivatives the
// focus side contributes.
func (lr *LocalResidual) ComputeFlux(flux []autodiff.Evaluation, fc *FaceContext) {
	lr.checkLen(flux, "flux")
	zero(flux)

	face := fc.Face
	if face.Interior == face.Exterior {
		panic("residual: face connects a cell to itself")
	}
	g := fc.Problem.Gravity()[2]

	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		face.Upstream[p] = face.Interior
		face.PotentialDifference[p] = 0
		face.Potential[p] = autodiff.Evaluation{}
		face.VolumeFlux[p] = autodiff.Evaluation{}
		if !lr.sys.PhaseIsActive(p) {
			continue
		}

		pot := lr.phasePotential(fc, p, g)
		// ties take the interior cell upstream; the flux is zero then anyway
		up := face.Interior
		if pot.Value() < 0 {
			up = face.Exterior
		}
		face.Upstream[p] = up
		face.Potential[p] = pot
		face.PotentialDifference[p] = pot.Value()
		if pot.Value() == 0 {
			continue
		}

		upQ := fc.Quantities(up)
		mob := fc.FocusEval(upQ.Mobility[p], up)
		transMult := fc.Problem.RockCompTransMultiplier(upQ, fc.GlobalIndex(up))
		if up != fc.FocusDof {
			transMult = transMult.Decay()
		}
		darcy := pot.Mul(mob).Mul(transMult).
			Scale(-face.Transmissibility / face.Area)
		face.VolumeFlux[p] = darcy

		invB := fc.FocusEval(upQ.Fluid.InvB(p), up)
		lr.evalPhaseFluxes(flux, p, upQ, up, fc, invB.Mul(darcy))
	}

	for _, m := range lr.modules {
		m.ComputeFlux(flux, fc)
	}
}

// phasePotential computes the signed, threshold-corrected potential
// difference of phase p across the face, interior minus exterior. The
// gravity head uses the arithmetic mean of the two phase densities. Below
// the threshold pressure the driving force is identically zero, derivatives
// included; above it the threshold is subtracted against the flow direction.
func (lr *LocalResidual) phasePotential(fc *FaceContext, p fluid.Phase, g float64) autodiff.Evaluation {
	face := fc.Face
	pIn := fc.FocusEval(fc.Interior.Fluid.Pressure(p), face.Interior)
	pEx := fc.FocusEval(fc.Exterior.Fluid.Pressure(p), face.Exterior)
	rhoIn := fc.FocusEval(fc.Interior.Fluid.Density(p), face.Interior)
	rhoEx := fc.FocusEval(fc.Exterior.Fluid.Density(p), face.Exterior)

	pot := pIn.Sub(pEx).
		Sub(autodiff.Average(rhoIn, rhoEx).Scale(g * face.DepthDifference))

	if th := face.ThresholdPressure; th > 0 {
		switch v := pot.Value(); {
		case math.Abs(v) <= th:
			return autodiff.Constant(0)
		case v > 0:
			pot = pot.Shift(-th)
		default:
			pot = pot.Shift(th)
		}
	}
	return pot
}

// evalPhaseFluxes routes a phase's surface-volume flux into its component's
// equation slot plus the dissolved/vaporized cross terms, using the upstream
// fluid state's ratios since transported composition follows the upstream
// fluid. In true-mass mode every contribution is scaled by the destination
// component's reference density at the upstream PVT region.
func (lr *LocalResidual) evalPhaseFluxes(flux []autodiff.Evaluation, p fluid.Phase,
	upQ *quantities.Intensive, upDof int, fc *FaceContext,
	surfaceVolumeFlux autodiff.Evaluation) {

	pvtRegion := upQ.PVTRegion
	add := func(c fluid.Component, rate autodiff.Evaluation) {
		slot := lr.sys.ActiveComponentIndex(c)
		if !lr.sys.ConserveSurfaceVolume() {
			rate = rate.Scale(lr.sys.ReferenceDensity(c, pvtRegion))
		}
		flux[slot] = flux[slot].Add(rate)
	}

	add(p.Component(), surfaceVolumeFlux)

	switch {
	case p == fluid.Oil && lr.sys.DissolvedGasEnabled():
		rs := fc.FocusEval(upQ.Fluid.Rs(), upDof)
		add(fluid.GasComponent, rs.Mul(surfaceVolumeFlux))
	case p == fluid.Gas:
		if lr.sys.VaporizedOilEnabled() {
			rv := fc.FocusEval(upQ.Fluid.Rv(), upDof)
			add(fluid.OilComponent, rv.Mul(surfaceVolumeFlux))
		}
		if lr.sys.VaporizedWaterEnabled() {
			rvw := fc.FocusEval(upQ.Fluid.Rvw(), upDof)
			add(fluid.WaterComponent, rvw.Mul(surfaceVolumeFlux))
		}
	}
}
