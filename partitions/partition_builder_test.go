package partitions

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartitions(t *testing.T) {
	tests := []struct {
		n, target, max int
		expected       []int
	}{
		{10, 3, 0, []int{3, 3, 3, 1}},
		{9, 3, 0, []int{3, 3, 3}},
		{9, 2, 4, []int{3, 3, 3}},
		{1, 100, 8, []int{1}},
		{0, 100, 8, nil},
	}
	for _, tc := range tests {
		pb := &PartitionBuilder{NumElements: tc.n, TargetPartitionSize: tc.target, MaxPartitions: tc.max}
		layout, err := pb.BuildPartitions()
		require.NoError(t, err)

		var sizes []int
		for _, p := range layout.Partitions {
			sizes = append(sizes, p.NumElements())
		}
		assert.Equal(t, tc.expected, sizes, "n=%d target=%d max=%d", tc.n, tc.target, tc.max)
		assert.NoError(t, layout.ValidateLayout())
		assert.Equal(t, tc.n, layout.TotalElements)
	}
}

func TestValidateLayoutDetectsGaps(t *testing.T) {
	layout := &PartitionLayout{
		Partitions:    []Partition{{ID: 0, Start: 0, End: 4}, {ID: 1, Start: 5, End: 8}},
		KpartMax:      4,
		TotalElements: 8,
		NumPartitions: 2,
	}
	err := layout.ValidateLayout()
	require.Error(t, err)
	t.Logf("expected error: %v", err)

	layout.Partitions[1].Start = 4
	assert.NoError(t, layout.ValidateLayout())

	layout.KpartMax = 5
	assert.Error(t, layout.ValidateLayout())
}

func TestForEachBlock(t *testing.T) {
	n := 5*DefaultPartitionSize + 17
	seen := make([]int32, n)
	err := ForEachBlock(n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("element %d visited %d times", i, c)
		}
	}

	sentinel := errors.New("block failed")
	err = ForEachBlock(n, func(lo, hi int) error {
		if lo <= 3 && 3 < hi {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)

	assert.NoError(t, ForEachBlock(0, func(lo, hi int) error {
		t.Fatal("no blocks expected")
		return nil
	}))
}
