package runner

import (
	"fmt"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
	"github.com/notargets/FVKernel/utils"
)

// ColumnConfig parameterizes the synthetic vertical column used by the
// command-line driver and the assembly tests: a chain of equal cells with
// water injected at the top and oil produced at the bottom.
type ColumnConfig struct {
	NumCells         int
	CellThickness    float64 // m, depth increases with cell index
	CellVolume       float64 // m^3
	Transmissibility float64
	FaceArea         float64
	Porosity         float64
	Gravity          float64 // m/s^2, 0 disables the head term

	// linearized PVT: invB(p) = 1 + Compressibility*(p - ReferencePressure)
	ReferencePressure float64
	Compressibility   float64

	WaterViscosity float64 // Pa s
	OilViscosity   float64

	// InjectionRate is the water source rate in the top cell; the same rate
	// of oil is withdrawn from the bottom cell.
	InjectionRate float64
}

// DefaultColumnConfig returns a small, well-conditioned column.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		NumCells:          10,
		CellThickness:     10,
		CellVolume:        1000,
		Transmissibility:  1e-12,
		FaceArea:          100,
		Porosity:          0.25,
		Gravity:           9.81,
		ReferencePressure: 2e7,
		Compressibility:   5e-10,
		WaterViscosity:    5e-4,
		OilViscosity:      2e-3,
		InjectionRate:     1e-6,
	}
}

// Column is a two-phase water/oil test problem on a vertical chain of cells.
// The primary unknowns per cell are the oil pressure (index 0) and the water
// saturation (index 1); all other unknown slots stay inactive. Quadratic
// relative permeabilities and the linearized formation volume factor give a
// smooth, nontrivial Jacobian.
type Column struct {
	cfg ColumnConfig
	sys *fluid.System

	Pressure    []float64
	WaterSat    []float64
	OldPressure []float64
	OldWaterSat []float64
}

// NewColumn builds a column with a hydrostatic initial pressure and a linear
// water saturation profile, wet on top. Both time levels start identical.
func NewColumn(sys *fluid.System, cfg ColumnConfig) (*Column, error) {
	if cfg.NumCells < 2 {
		return nil, fmt.Errorf("runner: column needs at least 2 cells, got %d", cfg.NumCells)
	}
	if !sys.PhaseIsEnabled(fluid.Water) || !sys.PhaseIsEnabled(fluid.Oil) {
		return nil, fmt.Errorf("runner: column requires water and oil phases")
	}
	c := &Column{
		cfg:         cfg,
		sys:         sys,
		Pressure:    make([]float64, cfg.NumCells),
		WaterSat:    make([]float64, cfg.NumCells),
		OldPressure: make([]float64, cfg.NumCells),
		OldWaterSat: make([]float64, cfg.NumCells),
	}
	rhoW := sys.ReferenceDensity(fluid.WaterComponent, 0)
	for i := 0; i < cfg.NumCells; i++ {
		depth := c.DofCenterDepth(i)
		c.Pressure[i] = cfg.ReferencePressure + rhoW*cfg.Gravity*depth
		c.WaterSat[i] = 0.9 - 0.8*float64(i)/float64(cfg.NumCells-1)
	}
	copy(c.OldPressure, c.Pressure)
	copy(c.OldWaterSat, c.WaterSat)
	return c, nil
}

func (c *Column) System() *fluid.System { return c.sys }

// Faces returns the chain's interior faces, top to bottom, with the
// geometry-derived coefficients pulled through the Problem methods.
func (c *Column) Faces() []quantities.Face {
	pairs, err := utils.BuildFaces(utils.ChainNeighbors(c.cfg.NumCells))
	if err != nil {
		panic(err) // chain adjacency is valid by construction
	}
	return FacesFromTopology(c, pairs, func(_, _ int) float64 {
		return c.cfg.FaceArea
	})
}

// Volumes returns the per-cell bulk volumes.
func (c *Column) Volumes() []float64 {
	v := make([]float64, c.cfg.NumCells)
	for i := range v {
		v[i] = c.cfg.CellVolume
	}
	return v
}

// BuildIntensive evaluates the column's fluid state on both time levels. The
// current level seeds pressure and water saturation as primary unknowns so
// every derived quantity carries derivatives; the previous level is constant.
func (c *Column) BuildIntensive(numEq int) [2][]*quantities.Intensive {
	var out [2][]*quantities.Intensive
	for t := 0; t < 2; t++ {
		out[t] = make([]*quantities.Intensive, c.cfg.NumCells)
	}
	for i := 0; i < c.cfg.NumCells; i++ {
		p := autodiff.Variable(c.Pressure[i], 0, numEq)
		sw := autodiff.Variable(c.WaterSat[i], 1, numEq)
		out[0][i] = c.cellState(p, sw)
		out[1][i] = c.cellState(autodiff.Constant(c.OldPressure[i]),
			autodiff.Constant(c.OldWaterSat[i]))
	}
	return out
}

// cellState derives the full intensive bundle from the two unknowns.
func (c *Column) cellState(p, sw autodiff.Evaluation) *quantities.Intensive {
	st := &fluid.BlackOilState{}
	so := sw.Neg().Shift(1)

	for _, ph := range []fluid.Phase{fluid.Water, fluid.Oil} {
		// no capillary pressure: both phases share the oil pressure
		st.Press[ph] = p
		invB := p.Shift(-c.cfg.ReferencePressure).
			Scale(c.cfg.Compressibility).Shift(1)
		st.InvFVF[ph] = invB
		rhoRef := c.sys.ReferenceDensity(ph.Component(), 0)
		st.Dens[ph] = invB.Scale(rhoRef)
		st.MolDens[ph] = invB.Scale(rhoRef)
	}
	st.Sat[fluid.Water] = sw
	st.Sat[fluid.Oil] = so
	st.Visc[fluid.Water] = autodiff.Constant(c.cfg.WaterViscosity)
	st.Visc[fluid.Oil] = autodiff.Constant(c.cfg.OilViscosity)
	st.RsEval = autodiff.Constant(0)
	st.RvEval = autodiff.Constant(0)
	st.RvwEval = autodiff.Constant(0)

	iq := &quantities.Intensive{
		Fluid:              st,
		Porosity:           autodiff.Constant(c.cfg.Porosity),
		RockCompactionMult: autodiff.Constant(1),
	}
	// quadratic relative permeabilities
	iq.Mobility[fluid.Water] = sw.Mul(sw).Scale(1 / c.cfg.WaterViscosity)
	iq.Mobility[fluid.Oil] = so.Mul(so).Scale(1 / c.cfg.OilViscosity)
	iq.Mobility[fluid.Gas] = autodiff.Constant(0)
	return iq
}

// Problem interface.

func (c *Column) Transmissibility(_, _ int) float64 { return c.cfg.Transmissibility }

func (c *Column) ThresholdPressure(_, _ int) float64 { return 0 }

func (c *Column) DofCenterDepth(globalIdx int) float64 {
	return (float64(globalIdx) + 0.5) * c.cfg.CellThickness
}

func (c *Column) Gravity() [3]float64 { return [3]float64{0, 0, c.cfg.Gravity} }

func (c *Column) RockCompTransMultiplier(iq *quantities.Intensive, _ int) autodiff.Evaluation {
	return iq.RockCompactionMult
}

// Source injects water into the top cell and withdraws oil from the bottom
// one, at matched surface-volume rates.
func (c *Column) Source(rate []autodiff.Evaluation, globalIdx, _ int) {
	switch globalIdx {
	case 0:
		slot := c.sys.ActiveComponentIndex(fluid.WaterComponent)
		rate[slot] = rate[slot].Shift(c.cfg.InjectionRate)
	case c.cfg.NumCells - 1:
		slot := c.sys.ActiveComponentIndex(fluid.OilComponent)
		rate[slot] = rate[slot].Shift(-c.cfg.InjectionRate)
	}
}

var _ residual.Problem = (*Column)(nil)
