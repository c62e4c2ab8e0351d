package residual

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
)

// Problem is the external collaborator that supplies everything the
// assemblers cannot compute themselves: geometry-derived coefficients,
// gravity, and the per-cell source terms (wells). Implementations must be
// safe for concurrent read-only use; the assembly driver calls them from
// multiple goroutines.
type Problem interface {
	// Transmissibility returns the geometric TPFA transmissibility between
	// two cells identified by global index.
	Transmissibility(globalInterior, globalExterior int) float64

	// ThresholdPressure returns the entry-pressure barrier between two cells
	// identified by global index, 0 when no barrier applies.
	ThresholdPressure(globalA, globalB int) float64

	// DofCenterDepth returns the depth of a cell center, positive downwards.
	DofCenterDepth(globalIdx int) float64

	// Gravity returns the gravitational acceleration vector. Only the last
	// component is consulted; gravity is assumed to act downwards.
	Gravity() [3]float64

	// RockCompTransMultiplier returns the rock-compaction transmissibility
	// multiplier for a cell, evaluated on the upstream side of a face.
	RockCompTransMultiplier(iq *quantities.Intensive, globalIdx int) autodiff.Evaluation

	// Source adds the problem-intrinsic source rate (wells, boundary inflow)
	// of one cell into rate, one entry per equation slot. rate arrives
	// zeroed.
	Source(rate []autodiff.Evaluation, globalIdx, timeIdx int)
}

// FaceContext carries everything one flux assembly call needs: the face
// bundle, the two adjacent cells' intensive quantities, the focus cell and
// the problem. It is built per call and never shared between goroutines.
type FaceContext struct {
	Face               *quantities.Face
	Interior, Exterior *quantities.Intensive

	// FocusDof is the stencil-local index of the cell whose unknowns carry
	// derivatives in this call, or NoFocus for a value-only assembly.
	FocusDof int

	Problem Problem
	System  *fluid.System
	TimeIdx int
}

// NoFocus disables derivative tracking for an assembly call: every quantity
// read is decayed.
const NoFocus = -1

// FocusEval returns e unchanged when the quantity belongs to the focus cell
// and a decayed copy otherwise. This is the selective-derivative rule: only
// the focus cell's unknowns carry exact derivatives, all other cells are
// treated as constants for the call.
func (fc *FaceContext) FocusEval(e autodiff.Evaluation, dof int) autodiff.Evaluation {
	if dof == fc.FocusDof {
		return e
	}
	return e.Decay()
}

// Quantities returns the intensive bundle of a stencil-local cell index.
func (fc *FaceContext) Quantities(dof int) *quantities.Intensive {
	switch dof {
	case fc.Face.Interior:
		return fc.Interior
	case fc.Face.Exterior:
		return fc.Exterior
	}
	panic("residual: dof index not part of this face")
}

// UpstreamQuantities returns the intensive bundle and stencil-local index of
// the upstream cell of phase p, as decided by the last base-physics flux
// loop. Auxiliary modules use it to follow the same upwind convention.
func (fc *FaceContext) UpstreamQuantities(p fluid.Phase) (*quantities.Intensive, int) {
	up := fc.Face.Upstream[p]
	return fc.Quantities(up), up
}

// GlobalIndex returns the global cell index of a stencil-local index.
func (fc *FaceContext) GlobalIndex(dof int) int {
	if dof == fc.Face.Interior {
		return fc.Face.GlobalInterior
	}
	return fc.Face.GlobalExterior
}

// SurfaceVolumeFlux converts phase p's Darcy flux of the current assembly
// into a surface-volume flux using the upstream cell's inverse formation
// volume factor, with the upstream side's derivatives kept only when it is
// the focus cell.
func (fc *FaceContext) SurfaceVolumeFlux(p fluid.Phase) autodiff.Evaluation {
	up, upDof := fc.UpstreamQuantities(p)
	invB := fc.FocusEval(up.Fluid.InvB(p), upDof)
	return invB.Mul(fc.Face.VolumeFlux[p])
}

// SourceContext carries everything one source assembly call needs.
type SourceContext struct {
	GlobalIdx int
	TimeIdx   int
	Intensive *quantities.Intensive
	Problem   Problem
	System    *fluid.System
}
