package runner

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/FVKernel/residual"
)

// AssembleJacobian builds the dense Jacobian of the residual with respect to
// the per-cell primary unknowns, one focus sweep per cell: with the focus on
// cell f, every quantity read outside f is decayed, so the flux derivatives
// that survive are exactly the partials with respect to f's unknowns. Each
// sweep writes only the column block of its focus cell, which keeps the
// parallel sweeps disjoint.
//
// Rows and columns are laid out cell-major: entry (c*numEq+e, f*numEq+k) is
// the partial of cell c's equation e with respect to unknown k of cell f.
func (a *Assembler) AssembleJacobian(dt float64) (*mat.Dense, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if dt <= 0 {
		return nil, fmt.Errorf("runner: invalid time step %g", dt)
	}
	start := time.Now()

	numEq := a.Residual.NumEquations()
	numCells := len(a.Intensive[0])
	jac := mat.NewDense(numCells*numEq, numCells*numEq, nil)

	// faces adjacent to each cell, for the flux stencil of a focus sweep
	cellFaces := make([][]int, numCells)
	for i := range a.Faces {
		cellFaces[a.Faces[i].Interior] = append(cellFaces[a.Faces[i].Interior], i)
		cellFaces[a.Faces[i].Exterior] = append(cellFaces[a.Faces[i].Exterior], i)
	}

	parallelRange(numCells, a.workers(), func(lo, hi int) {
		s0 := a.Residual.NewRateVector()
		src := a.Residual.NewRateVector()
		flux := a.Residual.NewRateVector()
		for f := lo; f < hi; f++ {
			v := a.CellVolume[f]

			// storage and source depend only on the cell's own unknowns; the
			// previous time level carries no derivatives and is skipped
			a.Residual.ComputeStorage(s0, a.Intensive[0][f], 0)
			a.Residual.ComputeSource(src, &residual.SourceContext{
				GlobalIdx: f,
				Intensive: a.Intensive[0][f],
				Problem:   a.Problem,
				System:    a.Residual.System(),
			})
			for e := 0; e < numEq; e++ {
				for k := 0; k < numEq; k++ {
					d := s0[e].Derivative(k)*v/dt - src[e].Derivative(k)*v
					if d != 0 {
						jac.Set(f*numEq+e, f*numEq+k, d)
					}
				}
			}

			for _, fi := range cellFaces[f] {
				face := a.Faces[fi]
				face.GlobalInterior, face.GlobalExterior = face.Interior, face.Exterior
				a.Residual.ComputeFlux(flux, &residual.FaceContext{
					Face:     &face,
					Interior: a.Intensive[0][face.Interior],
					Exterior: a.Intensive[0][face.Exterior],
					FocusDof: f,
					Problem:  a.Problem,
					System:   a.Residual.System(),
				})
				in, ex := face.Interior, face.Exterior
				for e := 0; e < numEq; e++ {
					for k := 0; k < numEq; k++ {
						d := flux[e].Derivative(k) * face.Area
						if d == 0 {
							continue
						}
						jac.Set(in*numEq+e, f*numEq+k, jac.At(in*numEq+e, f*numEq+k)-d)
						jac.Set(ex*numEq+e, f*numEq+k, jac.At(ex*numEq+e, f*numEq+k)+d)
					}
				}
			}
		}
	})

	a.logger().Debug("assembled jacobian",
		"cells", numCells, "size", numCells*numEq, "elapsed", time.Since(start))
	return jac, nil
}
