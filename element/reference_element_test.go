package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceCellCounts(t *testing.T) {
	expected := map[int][3]int{
		1: {2, 1, 2},
		2: {4, 4, 4},
		3: {8, 12, 6},
	}
	for dim, counts := range expected {
		rc, err := NewReferenceCell(dim)
		require.NoError(t, err)
		assert.Equal(t, counts[0], len(rc.Corners), "corners in %dD", dim)
		assert.Equal(t, counts[1], len(rc.Edges), "edges in %dD", dim)
		assert.Equal(t, counts[2], len(rc.Faces), "faces in %dD", dim)
		assert.Equal(t, counts[0], rc.Properties.NVp)
		assert.Equal(t, counts[1], rc.Properties.NEdges)
		assert.Equal(t, counts[2], rc.Properties.NFaces)
		assert.Equal(t, Dimensionality(dim), rc.Properties.Dimensions)
	}

	_, err := NewReferenceCell(4)
	assert.Error(t, err)
	_, err = NewReferenceCell(0)
	assert.Error(t, err)
}

func TestReferenceCellHexTopology(t *testing.T) {
	rc := MustReferenceCell(3)
	assert.Equal(t, Hex, rc.Properties.Type)

	// Corners are ordered x fastest
	assert.Equal(t, [3]int{1, 0, 0}, rc.Corners[1])
	assert.Equal(t, [3]int{0, 1, 0}, rc.Corners[2])
	assert.Equal(t, [3]int{0, 0, 1}, rc.Corners[4])
	assert.Equal(t, [3]int{1, 1, 1}, rc.Corners[7])

	for i, f := range rc.Faces {
		assert.Equal(t, i/2, f.Axis)
		assert.Equal(t, i%2, f.Side)
		require.Len(t, f.Corners, 4)
		for _, c := range f.Corners {
			assert.Equal(t, f.Side, rc.Corners[c][f.Axis], "face %d corner %d", i, c)
		}
	}

	for i, e := range rc.Edges {
		assert.Equal(t, i/4, e.Axis)
		lo, hi := rc.Corners[e.Corners[0]], rc.Corners[e.Corners[1]]
		for b := 0; b < 3; b++ {
			if b == e.Axis {
				assert.Equal(t, 0, lo[b])
				assert.Equal(t, 1, hi[b])
			} else {
				assert.Equal(t, lo[b], hi[b])
				assert.Equal(t, e.Offset[b], lo[b])
			}
		}
	}
	// Second y-edge sits at x=1, z=0
	assert.Equal(t, [3]int{1, 0, 0}, rc.Edges[5].Offset)
}
