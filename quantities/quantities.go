// Package quantities defines the per-cell (intensive) and per-face
// (extensive) quantity bundles consumed by the residual assemblers. The
// bundles are produced once per Newton iteration by the property-evaluation
// collaborator and are immutable for the duration of one assembly pass; the
// assemblers only read them, except for the per-face upwind record that the
// flux assembler writes back.
package quantities

import (
	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
)

// Intensive bundles everything attached to one control volume at one time
// level. The module sub-bundles are nil unless the corresponding auxiliary
// module is enabled; a module finding its bundle nil treats that as a fatal
// misconfiguration.
type Intensive struct {
	Fluid     fluid.State
	Porosity  autodiff.Evaluation
	Mobility  [fluid.NumPhases]autodiff.Evaluation
	PVTRegion int

	// RockCompactionMult is the transmissibility multiplier from rock
	// compaction, 1 when compaction is not modeled.
	RockCompactionMult autodiff.Evaluation

	Solvent   *SolventQuantities
	Extbo     *ExtboQuantities
	Polymer   *PolymerQuantities
	Energy    *EnergyQuantities
	Foam      *FoamQuantities
	Brine     *BrineQuantities
	Diffusion *DiffusionQuantities
	MICP      *MICPQuantities
}

// SolventQuantities carries the solvent "fourth phase" state of one cell.
type SolventQuantities struct {
	Saturation autodiff.Evaluation
	InvB       autodiff.Evaluation
	Mobility   autodiff.Evaluation
}

// ExtboQuantities carries the extended black-oil z-fraction of one cell.
type ExtboQuantities struct {
	ZFraction autodiff.Evaluation
}

// PolymerQuantities carries the polymer concentration in the water phase.
type PolymerQuantities struct {
	Concentration autodiff.Evaluation
}

// EnergyQuantities carries the thermal state of one cell.
type EnergyQuantities struct {
	Temperature        autodiff.Evaluation
	InternalEnergy     [fluid.NumPhases]autodiff.Evaluation // specific, per phase
	Enthalpy           [fluid.NumPhases]autodiff.Evaluation // specific, per phase
	RockInternalEnergy autodiff.Evaluation                  // per bulk volume of rock
}

// FoamQuantities carries the foam surfactant concentration.
type FoamQuantities struct {
	Concentration autodiff.Evaluation
}

// BrineQuantities carries the salt concentration in the water phase.
type BrineQuantities struct {
	SaltConcentration autodiff.Evaluation
}

// DiffusionQuantities carries the effective molecular diffusivity per phase.
type DiffusionQuantities struct {
	Diffusivity [fluid.NumPhases]autodiff.Evaluation
}

// MICPQuantities carries the microbially-induced-calcite-precipitation state.
// Microbes, oxygen and urea are suspended in the water phase; biofilm and
// calcite are attached to the rock.
type MICPQuantities struct {
	Microbes autodiff.Evaluation
	Oxygen   autodiff.Evaluation
	Urea     autodiff.Evaluation
	Biofilm  autodiff.Evaluation
	Calcite  autodiff.Evaluation
}

// Face bundles the geometric and decision data of one interior interface
// between two control volumes. Geometry is immutable input; the Upstream,
// PotentialDifference and VolumeFlux records are written by the flux
// assembler on every call and may be read afterwards by auxiliary modules
// and diagnostics.
type Face struct {
	// Stencil-local and global cell indices of the two sides.
	Interior, Exterior             int
	GlobalInterior, GlobalExterior int

	Transmissibility float64 // geometric TPFA transmissibility
	Area             float64

	// DepthDifference is depth(interior) - depth(exterior), depths positive
	// downwards.
	DepthDifference float64

	// ThresholdPressure is the entry-pressure barrier below which the
	// driving force is treated as zero.
	ThresholdPressure float64

	// DiffusiveTransmissibility is the geometric factor of the Fickian
	// diffusion flux, zero when diffusion is not modeled.
	DiffusiveTransmissibility float64

	// ThermalTransmissibility is the geometric factor of heat conduction,
	// zero when energy is not modeled.
	ThermalTransmissibility float64

	// Per-phase upwind decision of the last flux assembly: the stencil-local
	// index of the higher-potential cell.
	Upstream [fluid.NumPhases]int

	// PotentialDifference is the signed, threshold-corrected phase potential
	// difference (interior minus exterior) of the last flux assembly.
	PotentialDifference [fluid.NumPhases]float64

	// Potential is the derivative-carrying counterpart of
	// PotentialDifference.
	Potential [fluid.NumPhases]autodiff.Evaluation

	// VolumeFlux is the Darcy (reservoir-volume) flux of the last flux
	// assembly, derivative-carrying with respect to the focus cell.
	VolumeFlux [fluid.NumPhases]autodiff.Evaluation
}
