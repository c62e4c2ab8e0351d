// Package runner drives the residual assembly over a whole domain: it runs
// the local storage, flux and source kernels cell by cell and face by face,
// in parallel over disjoint worker ranges, and builds the global residual
// vector and Jacobian matrix the nonlinear solver consumes.
package runner

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/notargets/FVKernel/autodiff"
	"github.com/notargets/FVKernel/partitions"
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
)

// Assembler owns the per-iteration inputs of one assembly pass. The
// intensive bundles and faces are treated as immutable; every worker writes
// only its own output rows, so no locking is used.
type Assembler struct {
	Residual *residual.LocalResidual
	Problem  residual.Problem

	// Faces holds the interior-face geometry. Interior/Exterior must be
	// global cell indices.
	Faces []quantities.Face

	// Intensive holds the per-cell quantity bundles for the current (index
	// 0) and previous (index 1) time levels.
	Intensive [2][]*quantities.Intensive

	// CellVolume is the bulk volume of each cell.
	CellVolume []float64

	// Layout optionally groups the cells into partitions; when set, the
	// cell pass schedules whole partitions onto workers so neighboring
	// cells stay on the same goroutine.
	Layout *partitions.Layout

	// Workers caps the assembly goroutines; 0 means single-threaded.
	Workers int

	// CheckFinite enables the defined-value assertion: every computed slot
	// is checked for NaN/Inf before the pass returns.
	CheckFinite bool

	Logger *slog.Logger
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *Assembler) workers() int {
	if a.Workers < 1 {
		return 1
	}
	return a.Workers
}

func (a *Assembler) validate() error {
	if a.Residual == nil || a.Problem == nil {
		return fmt.Errorf("runner: residual and problem are required")
	}
	n := len(a.Intensive[0])
	if n == 0 {
		return fmt.Errorf("runner: no cells")
	}
	if len(a.Intensive[1]) != n {
		return fmt.Errorf("runner: time levels disagree: %d vs %d cells",
			n, len(a.Intensive[1]))
	}
	if len(a.CellVolume) != n {
		return fmt.Errorf("runner: %d cell volumes for %d cells", len(a.CellVolume), n)
	}
	for i := range a.Faces {
		f := &a.Faces[i]
		if f.Interior < 0 || f.Interior >= n || f.Exterior < 0 || f.Exterior >= n {
			return fmt.Errorf("runner: face %d references cells (%d,%d) outside [0,%d)",
				i, f.Interior, f.Exterior, n)
		}
		if f.Interior == f.Exterior {
			return fmt.Errorf("runner: face %d connects cell %d to itself", i, f.Interior)
		}
	}
	if a.Layout != nil {
		if a.Layout.TotalCells != n {
			return fmt.Errorf("runner: layout covers %d cells, domain has %d",
				a.Layout.TotalCells, n)
		}
		if err := a.Layout.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// parallelRange splits [0,n) into contiguous chunks, one goroutine each.
func parallelRange(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n < 2*workers {
		fn(0, n)
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// AssembleResidual computes the full residual vector for the time step dt:
// per cell, the storage difference between the two time levels divided by
// dt, minus the source rate, all scaled by cell bulk volume, plus the net
// face exchange. The per-face flux is the rate of gain of the interior cell
// per unit face area.
func (a *Assembler) AssembleResidual(dt float64) ([][]float64, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if dt <= 0 {
		return nil, fmt.Errorf("runner: invalid time step %g", dt)
	}
	start := time.Now()

	numEq := a.Residual.NumEquations()
	numCells := len(a.Intensive[0])
	res := make([][]float64, numCells)
	for c := range res {
		res[c] = make([]float64, numEq)
	}

	// cell pass: storage and source
	cellKernel := func(c int, s0, s1, src []autodiff.Evaluation) {
		a.Residual.ComputeStorage(s0, a.Intensive[0][c], 0)
		a.Residual.ComputeStorage(s1, a.Intensive[1][c], 1)
		a.Residual.ComputeSource(src, &residual.SourceContext{
			GlobalIdx: c,
			Intensive: a.Intensive[0][c],
			Problem:   a.Problem,
			System:    a.Residual.System(),
		})
		v := a.CellVolume[c]
		for e := 0; e < numEq; e++ {
			res[c][e] = (s0[e].Value()-s1[e].Value())*v/dt - src[e].Value()*v
		}
	}
	if a.Layout != nil {
		parts := a.Layout.Partitions
		parallelRange(len(parts), a.workers(), func(lo, hi int) {
			s0 := a.Residual.NewRateVector()
			s1 := a.Residual.NewRateVector()
			src := a.Residual.NewRateVector()
			for pi := lo; pi < hi; pi++ {
				for _, c := range parts[pi].Cells {
					cellKernel(c, s0, s1, src)
				}
			}
		})
	} else {
		parallelRange(numCells, a.workers(), func(lo, hi int) {
			s0 := a.Residual.NewRateVector()
			s1 := a.Residual.NewRateVector()
			src := a.Residual.NewRateVector()
			for c := lo; c < hi; c++ {
				cellKernel(c, s0, s1, src)
			}
		})
	}

	// face pass: fluxes into a per-face scratch array, then a serial
	// scatter so no two goroutines touch the same cell row
	fluxVals := make([][]float64, len(a.Faces))
	parallelRange(len(a.Faces), a.workers(), func(lo, hi int) {
		flux := a.Residual.NewRateVector()
		for i := lo; i < hi; i++ {
			face := a.Faces[i] // private copy, the upwind record is per call
			face.GlobalInterior, face.GlobalExterior = face.Interior, face.Exterior
			a.Residual.ComputeFlux(flux, &residual.FaceContext{
				Face:     &face,
				Interior: a.Intensive[0][face.Interior],
				Exterior: a.Intensive[0][face.Exterior],
				FocusDof: residual.NoFocus,
				Problem:  a.Problem,
				System:   a.Residual.System(),
			})
			vals := make([]float64, numEq)
			for e := 0; e < numEq; e++ {
				vals[e] = flux[e].Value() * face.Area
			}
			fluxVals[i] = vals
		}
	})
	for i := range a.Faces {
		in, ex := a.Faces[i].Interior, a.Faces[i].Exterior
		for e := 0; e < numEq; e++ {
			res[in][e] -= fluxVals[i][e]
			res[ex][e] += fluxVals[i][e]
		}
	}

	if a.CheckFinite {
		for c := range res {
			for e, v := range res[c] {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("runner: non-finite residual at cell %d equation %d", c, e)
				}
			}
		}
	}

	a.logger().Debug("assembled residual",
		"cells", numCells, "faces", len(a.Faces),
		"equations", numEq, "elapsed", time.Since(start))
	return res, nil
}
