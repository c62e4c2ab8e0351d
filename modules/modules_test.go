package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

type constProblem struct{}

func (constProblem) Transmissibility(a, b int) float64    { return 2 }
func (constProblem) ThresholdPressure(a, b int) float64   { return 0 }
func (constProblem) DofCenterDepth(globalIdx int) float64 { return 0 }
func (constProblem) Gravity() [3]float64                  { return [3]float64{} }

func (constProblem) RockCompTransMultiplier(iq *quantities.Intensive, globalIdx int) autodiff.Evaluation {
	return iq.RockCompactionMult
}

func (constProblem) Source(rate []autodiff.Evaluation, globalIdx, timeIdx int) {}

func threePhaseSystem(t *testing.T) *fluid.System {
	t.Helper()
	sys, err := fluid.NewSystem(fluid.Config{
		EnabledPhases:         [fluid.NumPhases]bool{true, true, true},
		ActivePhases:          [fluid.NumPhases]bool{true, true, true},
		ConserveSurfaceVolume: true,
		ReferenceDensities:    [][fluid.NumComponents]float64{{1000, 800, 1.2}},
	})
	require.NoError(t, err)
	return sys
}

// moduleCell builds a three-phase cell with every module bundle populated.
func moduleCell(pressure float64) *quantities.Intensive {
	st := &fluid.BlackOilState{}
	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		st.Press[p] = autodiff.Constant(pressure)
		st.Sat[p] = autodiff.Constant(0.5)
		st.Dens[p] = autodiff.Constant(800)
		st.MolDens[p] = autodiff.Constant(1000)
		st.InvFVF[p] = autodiff.Constant(1)
	}
	iq := &quantities.Intensive{
		Fluid:              st,
		Porosity:           autodiff.Constant(0.25),
		RockCompactionMult: autodiff.Constant(1),
		Solvent: &quantities.SolventQuantities{
			Saturation: autodiff.Constant(0.1),
			InvB:       autodiff.Constant(1),
			Mobility:   autodiff.Constant(0.5),
		},
		Extbo:   &quantities.ExtboQuantities{ZFraction: autodiff.Constant(0.2)},
		Polymer: &quantities.PolymerQuantities{Concentration: autodiff.Constant(0.5)},
		Energy: &quantities.EnergyQuantities{
			Temperature:        autodiff.Constant(350),
			RockInternalEnergy: autodiff.Constant(100),
		},
		Foam:  &quantities.FoamQuantities{Concentration: autodiff.Constant(0.3)},
		Brine: &quantities.BrineQuantities{SaltConcentration: autodiff.Constant(35)},
		Diffusion: &quantities.DiffusionQuantities{
			Diffusivity: [fluid.NumPhases]autodiff.Evaluation{
				autodiff.Constant(0.5), autodiff.Constant(0.5), autodiff.Constant(0.5),
			},
		},
		MICP: &quantities.MICPQuantities{
			Microbes: autodiff.Constant(1),
			Oxygen:   autodiff.Constant(1),
			Urea:     autodiff.Constant(1),
			Biofilm:  autodiff.Constant(2),
			Calcite:  autodiff.Constant(0.1),
		},
	}
	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		iq.Mobility[p] = autodiff.Constant(1)
		iq.Energy.InternalEnergy[p] = autodiff.Constant(2)
		iq.Energy.Enthalpy[p] = autodiff.Constant(3)
	}
	return iq
}

func newFace() *quantities.Face {
	return &quantities.Face{
		Interior: 0, Exterior: 1,
		GlobalInterior: 0, GlobalExterior: 1,
		Transmissibility: 2, Area: 1,
	}
}

func fluxContext(t *testing.T, lr *residual.LocalResidual, sys *fluid.System,
	pIn, pEx float64) (*residual.FaceContext, []autodiff.Evaluation) {
	t.Helper()
	fc := &residual.FaceContext{
		Face:     newFace(),
		Interior: moduleCell(pIn),
		Exterior: moduleCell(pEx),
		FocusDof: residual.NoFocus,
		Problem:  constProblem{},
		System:   sys,
	}
	flux := lr.NewRateVector()
	lr.ComputeFlux(flux, fc)
	return fc, flux
}

func TestFullModuleSetEquationCount(t *testing.T) {
	sys := threePhaseSystem(t)
	solvent, err := NewSolvent(sys)
	require.NoError(t, err)
	extbo, err := NewExtbo(sys)
	require.NoError(t, err)
	polymer, err := NewPolymer(sys)
	require.NoError(t, err)
	energy, err := NewEnergy(sys, 1)
	require.NoError(t, err)
	foam, err := NewFoam(sys, fluid.Gas)
	require.NoError(t, err)
	brine, err := NewBrine(sys)
	require.NoError(t, err)
	micp, err := NewMICP(sys, DefaultMICPParams())
	require.NoError(t, err)
	diffusion, err := NewDiffusion(sys)
	require.NoError(t, err)

	lr, err := residual.NewLocalResidual(sys,
		solvent, extbo, polymer, energy, foam, brine, micp, diffusion)
	require.NoError(t, err)

	// 3 base components + 1+1+1+1+1+1+5+0 module slots
	assert.Equal(t, 14, lr.NumEquations())
}

func TestSolventStorageAndFlux(t *testing.T) {
	sys := threePhaseSystem(t)
	solvent, err := NewSolvent(sys)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, solvent)
	require.NoError(t, err)
	slot := 3

	storage := lr.NewRateVector()
	lr.ComputeStorage(storage, moduleCell(2e5), 0)
	// solventSat * invB * porosity = 0.1 * 1 * 0.25
	assert.InDelta(t, 0.025, storage[slot].Value(), 1e-12)

	_, flux := fluxContext(t, lr, sys, 2e5, 1e5)
	// gas potential 1e5, solvent mobility 0.5: 1e5 * 0.5 * (-2) = -1e5
	assert.InDelta(t, -1e5, flux[slot].Value(), 1e-6)
}

func TestPolymerTransportFollowsWaterUpwind(t *testing.T) {
	sys := threePhaseSystem(t)
	polymer, err := NewPolymer(sys)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, polymer)
	require.NoError(t, err)
	slot := 3

	fc, flux := fluxContext(t, lr, sys, 2e5, 1e5)
	require.Equal(t, fc.Face.Interior, fc.Face.Upstream[fluid.Water])
	// water darcy flux 1e5 * 1 * (-2) = -2e5, times upstream conc 0.5
	assert.InDelta(t, -1e5, flux[slot].Value(), 1e-6)

	// reversed driving force takes the exterior concentration
	fc2 := &residual.FaceContext{
		Face:     newFace(),
		Interior: moduleCell(1e5),
		Exterior: moduleCell(2e5),
		FocusDof: residual.NoFocus,
		Problem:  constProblem{},
		System:   sys,
	}
	fc2.Exterior.Polymer.Concentration = autodiff.Constant(0.25)
	flux2 := lr.NewRateVector()
	lr.ComputeFlux(flux2, fc2)
	require.Equal(t, fc2.Face.Exterior, fc2.Face.Upstream[fluid.Water])
	// water darcy flux -1e5 * 1 * (-2) = +2e5, times upstream conc 0.25
	assert.InDelta(t, 5e4, flux2[slot].Value(), 1e-6)
}

func TestBrineAndFoamTransport(t *testing.T) {
	sys := threePhaseSystem(t)
	brine, err := NewBrine(sys)
	require.NoError(t, err)
	foam, err := NewFoam(sys, fluid.Gas)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, brine, foam)
	require.NoError(t, err)

	_, flux := fluxContext(t, lr, sys, 2e5, 1e5)
	// salt: -2e5 * 35; foam in gas: -2e5 * 0.3
	assert.InDelta(t, -7e6, flux[3].Value(), 1e-3)
	assert.InDelta(t, -6e4, flux[4].Value(), 1e-6)
}

func TestFoamCarrierValidation(t *testing.T) {
	sys := threePhaseSystem(t)
	_, err := NewFoam(sys, fluid.Oil)
	assert.Error(t, err)
}

func TestExtboRidesGasSurfaceFlux(t *testing.T) {
	sys := threePhaseSystem(t)
	extbo, err := NewExtbo(sys)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, extbo)
	require.NoError(t, err)

	storage := lr.NewRateVector()
	lr.ComputeStorage(storage, moduleCell(2e5), 0)
	// z * satGas * invB * porosity = 0.2 * 0.5 * 1 * 0.25
	assert.InDelta(t, 0.025, storage[3].Value(), 1e-12)

	_, flux := fluxContext(t, lr, sys, 2e5, 1e5)
	// gas surface flux -2e5 times upstream z 0.2
	assert.InDelta(t, -4e4, flux[3].Value(), 1e-6)
}

func TestEnergyStorageFluxAndSourceScaling(t *testing.T) {
	sys := threePhaseSystem(t)
	energy, err := NewEnergy(sys, 1e-3)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, energy)
	require.NoError(t, err)
	slot := 3

	storage := lr.NewRateVector()
	lr.ComputeStorage(storage, moduleCell(2e5), 0)
	// rock 100 + 3 phases * (0.5 * 800 * 2 * 0.25)
	assert.InDelta(t, 100+3*200, storage[slot].Value(), 1e-9)

	// pure conduction: equal pressures, temperature difference 50
	fc := &residual.FaceContext{
		Face:     newFace(),
		Interior: moduleCell(2e5),
		Exterior: moduleCell(2e5),
		FocusDof: residual.NoFocus,
		Problem:  constProblem{},
		System:   sys,
	}
	fc.Face.ThermalTransmissibility = 3
	fc.Exterior.Energy.Temperature = autodiff.Constant(300)
	flux := lr.NewRateVector()
	lr.ComputeFlux(flux, fc)
	assert.InDelta(t, -150.0, flux[slot].Value(), 1e-9)

	// advected enthalpy: each phase darcy flux -2e5, rho 800, h 3
	fc2, flux2 := fluxContext(t, lr, sys, 2e5, 1e5)
	require.NotNil(t, fc2)
	assert.InDelta(t, 3*(-2e5)*800*3, flux2[slot].Value(), 1e-3)

	// source scaling is the documented unit convention
	rate := lr.NewRateVector()
	rate[slot] = autodiff.Constant(500)
	energy.ScaleSource(rate)
	assert.InDelta(t, 0.5, rate[slot].Value(), 1e-12)
}

func TestMICPReactionNetwork(t *testing.T) {
	sys := threePhaseSystem(t)
	params := MICPParams{
		GrowthRate:           2,
		HalfSaturationOxygen: 1,
		YieldCoefficient:     0.5,
		DecayRate:            0.001,
		AttachmentRate:       0.1,
		DetachmentRate:       0.01,
		UreaHydrolysisRate:   1,
		HalfSaturationUrea:   1,
	}
	micp, err := NewMICP(sys, params)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, micp)
	require.NoError(t, err)
	off := 3

	rate := lr.NewRateVector()
	lr.ComputeSource(rate, &residual.SourceContext{
		Intensive: moduleCell(2e5),
		Problem:   constProblem{},
		System:    sys,
	})

	// growth = 1 * (1/(1+1)) * 2 = 1; attach = 0.1; detach = 0.02
	assert.InDelta(t, 1-0.1+0.02, rate[off+0].Value(), 1e-12)
	// oxygen consumed at growth/yield
	assert.InDelta(t, -2.0, rate[off+1].Value(), 1e-12)
	// hydrolysis = 2 * (1/(1+1)) * 1 = 1
	assert.InDelta(t, -1.0, rate[off+2].Value(), 1e-12)
	assert.InDelta(t, 0.1-0.02-0.002, rate[off+3].Value(), 1e-12)
	assert.InDelta(t, 1.0, rate[off+4].Value(), 1e-12)
}

func TestMICPStorageAndTransport(t *testing.T) {
	sys := threePhaseSystem(t)
	micp, err := NewMICP(sys, DefaultMICPParams())
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, micp)
	require.NoError(t, err)
	off := 3

	storage := lr.NewRateVector()
	lr.ComputeStorage(storage, moduleCell(2e5), 0)
	// suspended: conc * Sw * porosity = 1 * 0.5 * 0.25
	assert.InDelta(t, 0.125, storage[off+0].Value(), 1e-12)
	// attached: plain volume fractions
	assert.InDelta(t, 2.0, storage[off+3].Value(), 1e-12)
	assert.InDelta(t, 0.1, storage[off+4].Value(), 1e-12)

	_, flux := fluxContext(t, lr, sys, 2e5, 1e5)
	// suspended quantities ride the water darcy flux -2e5
	assert.InDelta(t, -2e5, flux[off+0].Value(), 1e-6)
	// attached quantities do not move
	assert.Equal(t, 0.0, flux[off+3].Value())
	assert.Equal(t, 0.0, flux[off+4].Value())
}

func TestDiffusionAddsToBaseComponentSlots(t *testing.T) {
	sys := threePhaseSystem(t)
	diffusion, err := NewDiffusion(sys)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, diffusion)
	require.NoError(t, err)

	fc := &residual.FaceContext{
		Face:     newFace(),
		Interior: moduleCell(2e5),
		Exterior: moduleCell(2e5), // no advection
		FocusDof: residual.NoFocus,
		Problem:  constProblem{},
		System:   sys,
	}
	fc.Face.DiffusiveTransmissibility = 4
	in := fc.Interior.Fluid.(*fluid.BlackOilState)
	ex := fc.Exterior.Fluid.(*fluid.BlackOilState)
	in.MoleFrac[fluid.Oil][fluid.OilComponent] = autodiff.Constant(0.8)
	ex.MoleFrac[fluid.Oil][fluid.OilComponent] = autodiff.Constant(0.6)

	flux := lr.NewRateVector()
	lr.ComputeFlux(flux, fc)

	oilSlot := sys.ActiveComponentIndex(fluid.OilComponent)
	// grad 0.2 * molar density 1000 * diffusivity 0.5 * (-4/1)
	assert.InDelta(t, -400.0, flux[oilSlot].Value(), 1e-9)
	// no other slot touched
	assert.Equal(t, 0.0, flux[sys.ActiveComponentIndex(fluid.WaterComponent)].Value())
}

func TestModulePanicsOnMissingBundle(t *testing.T) {
	sys := threePhaseSystem(t)
	polymer, err := NewPolymer(sys)
	require.NoError(t, err)
	lr, err := residual.NewLocalResidual(sys, polymer)
	require.NoError(t, err)

	cell := moduleCell(2e5)
	cell.Polymer = nil
	storage := lr.NewRateVector()
	assert.Panics(t, func() { lr.ComputeStorage(storage, cell, 0) })
}

func TestModulesDoNotTouchForeignSlots(t *testing.T) {
	sys := threePhaseSystem(t)
	solvent, err := NewSolvent(sys)
	require.NoError(t, err)
	polymer, err := NewPolymer(sys)
	require.NoError(t, err)
	lrWith, err := residual.NewLocalResidual(sys, solvent, polymer)
	require.NoError(t, err)
	lrBase, err := residual.NewLocalResidual(sys)
	require.NoError(t, err)

	cell := moduleCell(2e5)
	with := lrWith.NewRateVector()
	lrWith.ComputeStorage(with, cell, 0)
	base := lrBase.NewRateVector()
	lrBase.ComputeStorage(base, cell, 0)

	for i := range base {
		assert.Equal(t, base[i].Value(), with[i].Value(), "base slot %d changed", i)
	}
}
