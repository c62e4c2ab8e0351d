package partitions

import (
	"fmt"
)

// Strategy defines how cells are grouped into partitions.
type Strategy int

const (
	// BlockPartition assigns consecutive cell ranges; the default, and
	// near-optimal for structured index orderings.
	BlockPartition Strategy = iota

	// RoundRobin distributes cells cyclically; useful for load smoothing
	// when per-cell cost varies with cell index.
	RoundRobin

	// GreedyGraph grows partitions along the cell adjacency graph to keep
	// partition boundaries (and thus cross-partition faces) small.
	GreedyGraph
)

// Builder constructs partition layouts from the cell count and, for the
// graph strategy, the cell adjacency.
type Builder struct {
	// NumCells is the total cell count of the domain.
	NumCells int

	// Neighbors lists the adjacent cells of each cell. Required by
	// GreedyGraph, ignored by the index-based strategies.
	Neighbors [][]int

	// TargetSize is the desired cell count per partition.
	TargetSize int

	Strategy Strategy
}

// Build creates the partition layout.
func (b *Builder) Build() (*Layout, error) {
	if b.NumCells <= 0 {
		return nil, fmt.Errorf("partitions: invalid cell count %d", b.NumCells)
	}
	if b.TargetSize <= 0 {
		return nil, fmt.Errorf("partitions: invalid target size %d", b.TargetSize)
	}

	numParts := (b.NumCells + b.TargetSize - 1) / b.TargetSize

	var cellToPart []int
	switch b.Strategy {
	case BlockPartition:
		cellToPart = b.blockAssign(numParts)
	case RoundRobin:
		cellToPart = b.roundRobinAssign(numParts)
	case GreedyGraph:
		if len(b.Neighbors) != b.NumCells {
			return nil, fmt.Errorf("partitions: graph strategy needs adjacency for all %d cells, got %d",
				b.NumCells, len(b.Neighbors))
		}
		cellToPart = b.greedyAssign(numParts)
	default:
		return nil, fmt.Errorf("partitions: unknown strategy %d", b.Strategy)
	}

	layout := &Layout{
		Partitions:    make([]Partition, numParts),
		CellToPart:    cellToPart,
		TotalCells:    b.NumCells,
		NumPartitions: numParts,
	}
	for i := range layout.Partitions {
		layout.Partitions[i].ID = i
	}
	for c, p := range cellToPart {
		layout.Partitions[p].Cells = append(layout.Partitions[p].Cells, c)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// blockAssign gives partition p the cells [p*chunk, (p+1)*chunk), with the
// remainder spread over the leading partitions.
func (b *Builder) blockAssign(numParts int) []int {
	cellToPart := make([]int, b.NumCells)
	chunk := b.NumCells / numParts
	remainder := b.NumCells % numParts

	c := 0
	for p := 0; p < numParts; p++ {
		size := chunk
		if p < remainder {
			size++
		}
		for i := 0; i < size; i++ {
			cellToPart[c] = p
			c++
		}
	}
	return cellToPart
}

func (b *Builder) roundRobinAssign(numParts int) []int {
	cellToPart := make([]int, b.NumCells)
	for c := 0; c < b.NumCells; c++ {
		cellToPart[c] = c % numParts
	}
	return cellToPart
}

// greedyAssign grows each partition by breadth-first traversal from the
// lowest-numbered unassigned cell until it reaches the target size. Not as
// balanced as a true graph partitioner but keeps neighborhoods together
// without an external dependency.
func (b *Builder) greedyAssign(numParts int) []int {
	cellToPart := make([]int, b.NumCells)
	for i := range cellToPart {
		cellToPart[i] = -1
	}

	target := (b.NumCells + numParts - 1) / numParts
	part := 0
	assignedInPart := 0
	queue := make([]int, 0, target)

	advance := func() {
		if assignedInPart >= target && part < numParts-1 {
			part++
			assignedInPart = 0
			queue = queue[:0]
		}
	}

	for seed := 0; seed < b.NumCells; seed++ {
		if cellToPart[seed] != -1 {
			continue
		}
		queue = append(queue, seed)
		cellToPart[seed] = part
		assignedInPart++
		advance()

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range b.Neighbors[cur] {
				if nb < 0 || nb >= b.NumCells || cellToPart[nb] != -1 {
					continue
				}
				cellToPart[nb] = part
				assignedInPart++
				queue = append(queue, nb)
				advance()
			}
		}
	}
	return cellToPart
}
