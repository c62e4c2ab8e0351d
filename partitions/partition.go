// Package partitions decomposes the cell set of a discretized domain into
// disjoint groups for parallel residual assembly. Each partition is owned by
// exactly one worker; faces belong to the partition of their interior cell.
// No locking is needed during assembly because every output vector is
// private to its owning worker.
package partitions

import (
	"fmt"
)

// Partition is one group of cells that assembles together as a unit.
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Global cell indices in this partition
	Cells []int
}

// NumCells returns the number of cells owned by the partition.
func (p *Partition) NumCells() int { return len(p.Cells) }

// Layout is the complete decomposition of a domain.
type Layout struct {
	// All partitions of the domain
	Partitions []Partition

	// CellToPart maps global cell index to owning partition
	CellToPart []int

	// Global sizing information
	TotalCells    int
	NumPartitions int
}

// GetPartition returns the partition owning cell c, or -1 for an unknown
// cell.
func (l *Layout) GetPartition(c int) int {
	if c < 0 || c >= len(l.CellToPart) {
		return -1
	}
	return l.CellToPart[c]
}

// MaxPartitionSize returns the largest cell count across partitions.
func (l *Layout) MaxPartitionSize() int {
	maxSize := 0
	for i := range l.Partitions {
		if n := l.Partitions[i].NumCells(); n > maxSize {
			maxSize = n
		}
	}
	return maxSize
}

// Validate checks that the layout covers every cell exactly once and that
// the cell-to-partition map agrees with the membership lists.
func (l *Layout) Validate() error {
	if len(l.CellToPart) != l.TotalCells {
		return fmt.Errorf("partitions: CellToPart length %d != TotalCells %d",
			len(l.CellToPart), l.TotalCells)
	}
	if len(l.Partitions) != l.NumPartitions {
		return fmt.Errorf("partitions: %d partitions stored, %d declared",
			len(l.Partitions), l.NumPartitions)
	}
	seen := make([]bool, l.TotalCells)
	for pi := range l.Partitions {
		p := &l.Partitions[pi]
		if p.ID != pi {
			return fmt.Errorf("partitions: partition %d stored at index %d", p.ID, pi)
		}
		for _, c := range p.Cells {
			if c < 0 || c >= l.TotalCells {
				return fmt.Errorf("partitions: partition %d references cell %d out of range", pi, c)
			}
			if seen[c] {
				return fmt.Errorf("partitions: cell %d assigned twice", c)
			}
			seen[c] = true
			if l.CellToPart[c] != pi {
				return fmt.Errorf("partitions: cell %d listed in partition %d but mapped to %d",
					c, pi, l.CellToPart[c])
			}
		}
	}
	for c, ok := range seen {
		if !ok {
			return fmt.Errorf("partitions: cell %d unassigned", c)
		}
	}
	return nil
}
