package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/meshgrid/mesh"
)

func TestNewShape(t *testing.T) {
	h := [][]float64{{1, 2, 3}, {0.5, 0.5}}
	s, err := NewShape(h, []float64{-1, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Dim())
	assert.Equal(t, []int{3, 2}, s.N())
	assert.Equal(t, []float64{-1, 0, 2, 5}, s.NodeVector(0))
	assert.Equal(t, []float64{2, 2.5, 3}, s.NodeVector(1))
	assert.Equal(t, []float64{-0.5, 1, 3.5}, s.CenterVector(0))
	assert.Equal(t, 6.0, s.Extent(0))

	// Accessors return copies
	h[0][0] = 100
	got := s.H()
	assert.Equal(t, 1.0, got[0][0])
	got[0][0] = 42
	assert.Equal(t, 1.0, s.Widths(0)[0])
	x0 := s.X0()
	x0[0] = 7
	assert.Equal(t, -1.0, s.X0()[0])
}

func TestNewShapeRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		h  [][]float64
		x0 []float64
	}{
		"no axes":        {nil, nil},
		"four axes":      {[][]float64{{1}, {1}, {1}, {1}}, []float64{0, 0, 0, 0}},
		"empty axis":     {[][]float64{{1}, {}}, []float64{0, 0}},
		"zero width":     {[][]float64{{1, 0}}, []float64{0}},
		"negative width": {[][]float64{{1, -1}}, []float64{0}},
		"origin length":  {[][]float64{{1}, {1}}, []float64{0}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewShape(tc.h, tc.x0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, mesh.ErrValidation), "got %v", err)
		})
	}
}

func TestOriginResolve(t *testing.T) {
	h := [][]float64{{1, 1}, {0.5, 0.5, 0.5, 0.5}, {3}}

	x0, err := Aligned("0CN").Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -1, -3}, x0)

	x0, err = Origin{}.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, x0)

	x0, err = At(1, 2, 3).Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, x0)

	_, err = Aligned("0C").Resolve(h)
	assert.ErrorIs(t, err, mesh.ErrValidation)
	_, err = Aligned("0CX").Resolve(h)
	assert.ErrorIs(t, err, mesh.ErrValidation)
	_, err = At(1, 2).Resolve(h)
	assert.ErrorIs(t, err, mesh.ErrValidation)
	_, err = Origin{Values: []float64{0, 0, 0}, Token: "000"}.Resolve(h)
	assert.ErrorIs(t, err, mesh.ErrValidation)
}

func TestUniform(t *testing.T) {
	h := Uniform(4, 2)
	require.Len(t, h, 2)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, h[0])
	assert.Equal(t, []float64{0.5, 0.5}, h[1])
	assert.Nil(t, UniformWidths(0, 1))
}
