// Package utils provides small mesh-topology helpers shared by the assembly
// driver and the partitioner: building the unique interior face list from
// cell adjacency and back.
package utils

import (
	"fmt"
)

// FacePair identifies one interior interface by its two global cell indices,
// ordered so that A < B. Each physical face appears exactly once.
type FacePair struct {
	A, B int
}

// BuildFaces extracts the unique interior faces from a symmetric cell
// adjacency list. Adjacency entries pointing outside [0, len(neighbors)) or
// back at the own cell are rejected.
func BuildFaces(neighbors [][]int) ([]FacePair, error) {
	n := len(neighbors)
	var faces []FacePair
	for c := 0; c < n; c++ {
		for _, nb := range neighbors[c] {
			if nb < 0 || nb >= n {
				return nil, fmt.Errorf("utils: cell %d has neighbor %d out of range [0,%d)", c, nb, n)
			}
			if nb == c {
				return nil, fmt.Errorf("utils: cell %d is its own neighbor", c)
			}
			if c < nb {
				faces = append(faces, FacePair{A: c, B: nb})
			}
		}
	}
	// every face listed from the low side must be confirmed from the high side
	for _, f := range faces {
		if !contains(neighbors[f.B], f.A) {
			return nil, fmt.Errorf("utils: adjacency not symmetric: %d lists %d but not vice versa",
				f.A, f.B)
		}
	}
	return faces, nil
}

// NeighborsFromFaces is the inverse of BuildFaces: it expands a face list
// into a symmetric adjacency list over numCells cells.
func NeighborsFromFaces(numCells int, faces []FacePair) ([][]int, error) {
	neighbors := make([][]int, numCells)
	for _, f := range faces {
		if f.A < 0 || f.A >= numCells || f.B < 0 || f.B >= numCells {
			return nil, fmt.Errorf("utils: face (%d,%d) out of range [0,%d)", f.A, f.B, numCells)
		}
		if f.A == f.B {
			return nil, fmt.Errorf("utils: face (%d,%d) connects a cell to itself", f.A, f.B)
		}
		neighbors[f.A] = append(neighbors[f.A], f.B)
		neighbors[f.B] = append(neighbors[f.B], f.A)
	}
	return neighbors, nil
}

// ChainNeighbors returns the adjacency of a 1-D chain of numCells cells,
// the topology of a vertical column model.
func ChainNeighbors(numCells int) [][]int {
	neighbors := make([][]int, numCells)
	for c := 0; c < numCells; c++ {
		if c > 0 {
			neighbors[c] = append(neighbors[c], c-1)
		}
		if c < numCells-1 {
			neighbors[c] = append(neighbors[c], c+1)
		}
	}
	return neighbors
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
