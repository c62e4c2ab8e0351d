package fluid

import (
	"github.com/notargets/FVKernel/autodiff"
)

// State is the read-only view of the thermodynamic state of one control
// volume that the assembly kernel consumes. Every accessor may return a
// derivative-carrying Evaluation; callers that must not propagate
// derivatives decay the result themselves.
//
// Accessing a disabled phase's properties is a contract violation;
// implementations are free to panic.
type State interface {
	Pressure(p Phase) autodiff.Evaluation
	Saturation(p Phase) autodiff.Evaluation
	Density(p Phase) autodiff.Evaluation
	MolarDensity(p Phase) autodiff.Evaluation
	Viscosity(p Phase) autodiff.Evaluation

	// InvB is the inverse formation volume factor: surface volume per
	// reservoir volume of phase p.
	InvB(p Phase) autodiff.Evaluation

	// MoleFraction of component c in phase p, used by the diffusion module.
	MoleFraction(p Phase, c Component) autodiff.Evaluation

	// Black-oil mass transfer ratios.
	Rs() autodiff.Evaluation  // dissolved gas in oil
	Rv() autodiff.Evaluation  // vaporized oil in gas
	Rvw() autodiff.Evaluation // vaporized water in gas
}

// BlackOilState is a plain value implementation of State. It is filled by
// the property-evaluation collaborator (or directly by tests) and read by
// the assemblers.
type BlackOilState struct {
	Press    [NumPhases]autodiff.Evaluation
	Sat      [NumPhases]autodiff.Evaluation
	Dens     [NumPhases]autodiff.Evaluation
	MolDens  [NumPhases]autodiff.Evaluation
	Visc     [NumPhases]autodiff.Evaluation
	InvFVF   [NumPhases]autodiff.Evaluation
	MoleFrac [NumPhases][NumComponents]autodiff.Evaluation

	RsEval  autodiff.Evaluation
	RvEval  autodiff.Evaluation
	RvwEval autodiff.Evaluation
}

var _ State = (*BlackOilState)(nil)

func (s *BlackOilState) Pressure(p Phase) autodiff.Evaluation     { return s.Press[p] }
func (s *BlackOilState) Saturation(p Phase) autodiff.Evaluation   { return s.Sat[p] }
func (s *BlackOilState) Density(p Phase) autodiff.Evaluation      { return s.Dens[p] }
func (s *BlackOilState) MolarDensity(p Phase) autodiff.Evaluation { return s.MolDens[p] }
func (s *BlackOilState) Viscosity(p Phase) autodiff.Evaluation    { return s.Visc[p] }
func (s *BlackOilState) InvB(p Phase) autodiff.Evaluation         { return s.InvFVF[p] }

func (s *BlackOilState) MoleFraction(p Phase, c Component) autodiff.Evaluation {
	return s.MoleFrac[p][c]
}

func (s *BlackOilState) Rs() autodiff.Evaluation  { return s.RsEval }
func (s *BlackOilState) Rv() autodiff.Evaluation  { return s.RvEval }
func (s *BlackOilState) Rvw() autodiff.Evaluation { return s.RvwEval }
