// Package modules implements the auxiliary-physics add-ons of the black-oil
// residual: solvent, extended black-oil (z-fraction), polymer, energy, foam,
// brine, molecular diffusion and microbially-induced calcite precipitation.
//
// Each module satisfies residual.Module, owns its appended equation slots and
// contributes additively to storage, flux and source. A disabled module is
// simply not registered; there are no runtime no-op stand-ins. Modules that
// transport a quantity with a carrier phase follow the upwind decision the
// base flux assembler recorded on the face.
package modules

import (
	"fmt"

	"github.com/notargets/FVKernel/fluid"
)

// base carries the bookkeeping shared by all modules.
type base struct {
	sys    *fluid.System
	offset int
}

func (b *base) SetEquationOffset(off int) { b.offset = off }

func mustQuantities[T any](q *T, module string) *T {
	if q == nil {
		panic(fmt.Sprintf("modules: %s module enabled but cell carries no %s quantities",
			module, module))
	}
	return q
}

func requireCarrier(sys *fluid.System, module string, p fluid.Phase) error {
	if !sys.PhaseIsEnabled(p) {
		return fmt.Errorf("modules: %s module requires the %s phase", module, p)
	}
	return nil
}
