package partitions

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultPartitionSize is the smallest block worth handing to its own goroutine
const DefaultPartitionSize = 2048

// PartitionBuilder constructs block partitions of an entity range
type PartitionBuilder struct {
	NumElements int

	// Partitioning parameters
	TargetPartitionSize int // Desired elements per partition
	MaxPartitions       int // Upper bound on partitions, e.g. available workers
}

// BuildPartitions creates a partition layout of consecutive blocks
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumElements < 0 {
		return nil, fmt.Errorf("invalid element count %d", pb.NumElements)
	}
	if pb.TargetPartitionSize <= 0 {
		return nil, fmt.Errorf("invalid target partition size %d", pb.TargetPartitionSize)
	}

	// Determine number of partitions needed
	numPartitions := pb.calculateNumPartitions()

	// Simple block partitioning
	perPartition := 0
	if numPartitions > 0 {
		perPartition = int(math.Ceil(float64(pb.NumElements) / float64(numPartitions)))
		numPartitions = int(math.Ceil(float64(pb.NumElements) / float64(perPartition)))
	}

	partitions := make([]Partition, numPartitions)
	kpartMax := 0
	for i := range partitions {
		start := i * perPartition
		end := start + perPartition
		if end > pb.NumElements {
			end = pb.NumElements
		}
		partitions[i] = Partition{ID: i, Start: start, End: end}
		if end-start > kpartMax {
			kpartMax = end - start
		}
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.NumElements,
		NumPartitions: numPartitions,
	}

	// Validate the layout
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines partition count from the target size,
// capped by MaxPartitions
func (pb *PartitionBuilder) calculateNumPartitions() int {
	if pb.NumElements == 0 {
		return 0
	}
	numPartitions := int(math.Ceil(float64(pb.NumElements) / float64(pb.TargetPartitionSize)))
	if pb.MaxPartitions > 0 && numPartitions > pb.MaxPartitions {
		numPartitions = pb.MaxPartitions
	}

	// Ensure at least one partition
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// ForEachBlock splits [0, n) into blocks and calls fn once per block,
// concurrently. fn must only write state owned by indices in [lo, hi).
// The first error returned by any block is returned.
func ForEachBlock(n int, fn func(lo, hi int) error) error {
	pb := &PartitionBuilder{
		NumElements:         n,
		TargetPartitionSize: DefaultPartitionSize,
		MaxPartitions:       runtime.GOMAXPROCS(0),
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return err
	}
	switch layout.NumPartitions {
	case 0:
		return nil
	case 1:
		return fn(0, n)
	}

	var g errgroup.Group
	for _, p := range layout.Partitions {
		p := p
		g.Go(func() error {
			return fn(p.Start, p.End)
		})
	}
	return g.Wait()
}
