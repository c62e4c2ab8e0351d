package residual

import (
	"github.com/notargets/FVKernel/autodiff"
)

// ComputeSource fills rate with the external source term of one cell (wells,
// boundary inflow) and lets the enabled modules add their own contributions
// (chiefly the microbial reaction terms). Modules implementing SourceScaler
// are applied last; the energy module uses this for its unit-scaling
// convention.
func (lr *LocalResidual) ComputeSource(rate []autodiff.Evaluation, sc *SourceContext) {
	lr.checkLen(rate, "source")
	zero(rate)

	sc.Problem.Source(rate, sc.GlobalIdx, sc.TimeIdx)

	for _, m := range lr.modules {
		m.AddSource(rate, sc)
	}
	for _, m := range lr.modules {
		if s, ok := m.(SourceScaler); ok {
			s.ScaleSource(rate)
		}
	}
}
