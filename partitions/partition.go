package partitions

import (
	"fmt"
)

// Partition represents a contiguous range of entities (cells, faces, edges
// or nodes) processed together by one worker
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Entity membership: global indices Start <= i < End
	Start int
	End   int
}

// NumElements returns the number of entities in the partition
func (p Partition) NumElements() int {
	return p.End - p.Start
}

// PartitionLayout manages the complete decomposition of an entity range
type PartitionLayout struct {
	// All partitions in index order
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumElements) across all partitions
	TotalElements int // Sum of all elements across partitions
	NumPartitions int // Total number of partitions
}

// ValidateLayout checks partition consistency: partitions tile
// [0, TotalElements) in order without gaps or overlap.
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("layout has %d partitions, NumPartitions is %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	next := 0
	actualMax := 0
	for i, p := range pl.Partitions {
		if p.ID != i {
			return fmt.Errorf("partition at position %d has ID %d", i, p.ID)
		}
		if p.Start != next {
			return fmt.Errorf("partition %d starts at %d, expected %d", p.ID, p.Start, next)
		}
		if p.End < p.Start {
			return fmt.Errorf("partition %d has negative size [%d, %d)", p.ID, p.Start, p.End)
		}
		if p.NumElements() > actualMax {
			actualMax = p.NumElements()
		}
		next = p.End
	}
	if next != pl.TotalElements {
		return fmt.Errorf("partitions cover %d elements, expected %d", next, pl.TotalElements)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d", actualMax, pl.KpartMax)
	}
	return nil
}
