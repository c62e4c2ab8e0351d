package runner

import (
	"github.com/notargets/FVKernel/quantities"
	"github.com/notargets/FVKernel/residual"
	"github.com/notargets/FVKernel/utils"
)

// FacesFromTopology builds the face bundles of a cell adjacency, pulling
// transmissibility, threshold pressure and cell-center depths from the
// problem. The face area is geometric and supplied per pair by the caller.
// The lower cell index of each pair becomes the interior side.
func FacesFromTopology(p residual.Problem, pairs []utils.FacePair,
	area func(interior, exterior int) float64) []quantities.Face {

	faces := make([]quantities.Face, len(pairs))
	for i, fp := range pairs {
		faces[i] = quantities.Face{
			Interior:          fp.A,
			Exterior:          fp.B,
			GlobalInterior:    fp.A,
			GlobalExterior:    fp.B,
			Transmissibility:  p.Transmissibility(fp.A, fp.B),
			ThresholdPressure: p.ThresholdPressure(fp.A, fp.B),
			Area:              area(fp.A, fp.B),
			DepthDifference:   p.DofCenterDepth(fp.A) - p.DofCenterDepth(fp.B),
		}
	}
	return faces
}
