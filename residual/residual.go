// Package residual implements the local residual assembly of the black-oil
// conservation system: the storage (accumulation), flux (advective exchange)
// and source contributions of each control volume and interface, with
// selective automatic differentiation with respect to a per-call focus cell.
//
// The assemblers read intensive and extensive quantity bundles produced
// elsewhere and write into equation-indexed rate vectors owned by the
// caller. Auxiliary physics attach through the Module interface; a disabled
// module is simply absent from the module list.
package residual

import (
	"fmt"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/quantities"

	"github.com/notargets/FVKernel/fluid"
)

// Module is one auxiliary-physics add-on. Each module owns zero or more
// equation slots appended after the base component equations and contributes
// additively to storage, flux and source. A module must never write slots it
// does not own, except for diffusion-style modules that add to the base
// component equations by design.
type Module interface {
	Name() string

	// NumEquations returns how many equation slots the module appends.
	NumEquations() int

	// SetEquationOffset hands the module the index of its first equation
	// slot. Called exactly once, before any assembly.
	SetEquationOffset(offset int)

	AddStorage(storage []autodiff.Evaluation, iq *quantities.Intensive, timeIdx int)
	ComputeFlux(flux []autodiff.Evaluation, fc *FaceContext)
	AddSource(rate []autodiff.Evaluation, sc *SourceContext)
}

// SourceScaler is an optional Module capability: a final rescaling of the
// assembled source vector (the energy module's unit convention).
type SourceScaler interface {
	ScaleSource(rate []autodiff.Evaluation)
}

// LocalResidual assembles the per-cell and per-face residual contributions
// of the black-oil system plus a fixed, ordered list of enabled modules. It
// is immutable after construction and safe for concurrent use.
type LocalResidual struct {
	sys     *fluid.System
	modules []Module
	numEq   int
}

// NewLocalResidual wires the fluid system and the enabled modules into one
// residual assembler, assigning each module its equation slots in list
// order.
func NewLocalResidual(sys *fluid.System, modules ...Module) (*LocalResidual, error) {
	lr := &LocalResidual{
		sys:     sys,
		modules: modules,
		numEq:   sys.NumActiveComponents(),
	}
	seen := make(map[string]bool, len(modules))
	for _, m := range modules {
		if seen[m.Name()] {
			return nil, fmt.Errorf("residual: module %q registered twice", m.Name())
		}
		seen[m.Name()] = true
		if m.NumEquations() < 0 {
			return nil, fmt.Errorf("residual: module %q reports negative equation count", m.Name())
		}
		m.SetEquationOffset(lr.numEq)
		lr.numEq += m.NumEquations()
	}
	return lr, nil
}

// System returns the fluid system the residual was built for.
func (lr *LocalResidual) System() *fluid.System { return lr.sys }

// NumEquations returns the total equation slot count: active components plus
// module slots.
func (lr *LocalResidual) NumEquations() int { return lr.numEq }

// Modules returns the ordered module list.
func (lr *LocalResidual) Modules() []Module { return lr.modules }

// NewRateVector allocates a zeroed per-equation vector.
func (lr *LocalResidual) NewRateVector() []autodiff.Evaluation {
	return make([]autodiff.Evaluation, lr.numEq)
}

func (lr *LocalResidual) checkLen(v []autodiff.Evaluation, what string) {
	if len(v) != lr.numEq {
		panic(fmt.Sprintf("residual: %s vector has %d slots, want %d", what, len(v), lr.numEq))
	}
}

func zero(v []autodiff.Evaluation) {
	for i := range v {
		v[i] = autodiff.Evaluation{}
	}
}

// adaptMassConservation converts a surface-volume vector to true mass by
// scaling every enabled component slot with its reference density. A no-op
// in surface-volume conservation mode.
func (lr *LocalResidual) adaptMassConservation(v []autodiff.Evaluation, pvtRegion int) {
	if lr.sys.ConserveSurfaceVolume() {
		return
	}
	for p := fluid.Phase(0); p < fluid.NumPhases; p++ {
		if !lr.sys.PhaseIsEnabled(p) {
			continue
		}
		c := p.Component()
		slot := lr.sys.ActiveComponentIndex(c)
		v[slot] = v[slot].Scale(lr.sys.ReferenceDensity(c, pvtRegion))
	}
}
