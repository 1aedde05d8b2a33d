package utils

import (
	"fmt"
)

// IndexMap is a bijection between entity keys and the contiguous index range
// [0, Len()). Indices are handed out in first-insertion order.
type IndexMap[K comparable] struct {
	GlobalToLocal map[K]int // key → index
	LocalToGlobal []K       // index → key
}

// NewIndexMap creates an empty map sized for capacity keys
func NewIndexMap[K comparable](capacity int) *IndexMap[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &IndexMap[K]{
		GlobalToLocal: make(map[K]int, capacity),
		LocalToGlobal: make([]K, 0, capacity),
	}
}

// Insert returns the index of k, assigning the next free index the first
// time k is seen
func (im *IndexMap[K]) Insert(k K) (idx int, isNew bool) {
	if idx, ok := im.GlobalToLocal[k]; ok {
		return idx, false
	}
	idx = len(im.LocalToGlobal)
	im.GlobalToLocal[k] = idx
	im.LocalToGlobal = append(im.LocalToGlobal, k)
	return idx, true
}

// Index looks up the index of k
func (im *IndexMap[K]) Index(k K) (int, bool) {
	idx, ok := im.GlobalToLocal[k]
	return idx, ok
}

// Key returns the key assigned to index i
func (im *IndexMap[K]) Key(i int) K {
	return im.LocalToGlobal[i]
}

// Len returns the number of indexed keys
func (im *IndexMap[K]) Len() int {
	return len(im.LocalToGlobal)
}

// Verify checks that the two directions agree and form a bijection onto
// [0, Len())
func (im *IndexMap[K]) Verify() error {
	if len(im.GlobalToLocal) != len(im.LocalToGlobal) {
		return fmt.Errorf("index map size mismatch: %d keys, %d indices",
			len(im.GlobalToLocal), len(im.LocalToGlobal))
	}
	for i, k := range im.LocalToGlobal {
		idx, ok := im.GlobalToLocal[k]
		if !ok {
			return fmt.Errorf("index %d key %v missing from reverse map", i, k)
		}
		if idx != i {
			return fmt.Errorf("index %d key %v maps back to %d", i, k, idx)
		}
	}
	return nil
}

// VerifyPermutation checks that indices is a bijection onto [0, n)
func VerifyPermutation(indices []int, n int) error {
	if len(indices) != n {
		return fmt.Errorf("permutation has %d entries, expected %d", len(indices), n)
	}
	seen := make([]bool, n)
	for pos, idx := range indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("invalid index %d at position %d (max %d)", idx, pos, n-1)
		}
		if seen[idx] {
			return fmt.Errorf("index %d assigned twice", idx)
		}
		seen[idx] = true
	}
	return nil
}
