package cylindrical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
)

func TestCylindricalFullCircle(t *testing.T) {
	m, err := NewUniform([]int{4, 1, 9}, grid.Aligned("00C"))
	require.NoError(t, err)
	g, err := m.Geometry()
	require.NoError(t, err)

	assert.Equal(t, mesh.Cylindrical, m.Kind())
	assert.True(t, m.Periodic())
	assert.Equal(t, []float64{0, 0, -0.5}, m.X0())

	assert.Equal(t, 36, g.NC)
	assert.Equal(t, []int{4, 1, 9}, g.VnC)
	// One angular node instead of two
	assert.Equal(t, []int{5, 1, 10}, g.VnN)
	assert.Equal(t, 50, g.NN)
	assert.Equal(t, []int{5 * 9, 4 * 9, 4 * 10}, g.VnF)
	assert.Equal(t, []int{4 * 10, 5 * 10, 5 * 9}, g.VnE)

	// Unit cylinder
	assert.InDelta(t, math.Pi, floats.Sum(g.Vol), 1e-12)
	c := m.Counts()
	rFaces := g.Area[:c.VnF[0]]
	assert.InDelta(t, (0+0.25+0.5+0.75+1)*2*math.Pi, floats.Sum(rFaces), 1e-12)
	zFaces := g.Area[c.FaceOffset(2):]
	assert.InDelta(t, 10*math.Pi, floats.Sum(zFaces), 1e-12)

	require.NoError(t, g.Validate(3))
}

func TestCylindricalNormalsVaryWithAngle(t *testing.T) {
	m, err := NewUniform([]int{2, 4}, grid.Origin{})
	require.NoError(t, err)
	g, err := m.Geometry()
	require.NoError(t, err)
	require.True(t, m.Periodic())

	c := m.Counts()
	assert.Equal(t, []int{3, 4}, c.VnN)

	// r-faces are (3 × 4), centered on θ = π/4, 3π/4, ...
	for j := 0; j < 4; j++ {
		theta := (float64(j) + 0.5) * math.Pi / 2
		n := mat.Row(nil, j*3+1, g.Normals)
		assert.InDeltaSlice(t, []float64{math.Cos(theta), math.Sin(theta)}, n, 1e-14, "r-face %d", j)
	}
	// θ-faces (2 × 4) lie on θ = 0, π/2, ...
	off := c.FaceOffset(1)
	for j := 0; j < 4; j++ {
		theta := float64(j) * math.Pi / 2
		n := mat.Row(nil, off+j*2, g.Normals)
		assert.InDeltaSlice(t, []float64{-math.Sin(theta), math.Cos(theta)}, n, 1e-14, "θ-face %d", j)
		assert.InDelta(t, 0.5, g.Area[off+j*2], 1e-15)
	}
	first := mat.Row(nil, 0, g.Normals)
	second := mat.Row(nil, 3, g.Normals)
	assert.False(t, floats.EqualApprox(first, second, 1e-6), "normals must vary with θ")

	// θ-edges at the axis have zero length, at r = 1 a quarter circle
	eoff := c.EdgeOffset(1)
	assert.Equal(t, 0.0, g.Edge[eoff])
	assert.InDelta(t, math.Pi/2, g.Edge[eoff+2], 1e-15)
	require.NoError(t, g.Validate(2))
}

func TestCylindricalWedge(t *testing.T) {
	h := [][]float64{{1, 1}, {math.Pi / 4, math.Pi / 4}, {2}}
	m, err := NewMesh(h, grid.At(1, 0, 0))
	require.NoError(t, err)
	g, err := m.Geometry()
	require.NoError(t, err)

	assert.False(t, m.Periodic())
	assert.Equal(t, []int{3, 3, 2}, g.VnN)
	// Annulus 1 < r < 3, quarter circle, height 2
	assert.InDelta(t, 0.5*(9-1)*math.Pi/2*2, floats.Sum(g.Vol), 1e-12)
	assert.InDelta(t, 0.5*(4-1)*math.Pi/4*2, g.Vol[0], 1e-14)
}

func TestCylindricalValidation(t *testing.T) {
	_, err := NewUniform([]int{4, 1, 9}, grid.At(-0.1, 0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, mesh.ErrValidation)
	t.Logf("expected error: %v", err)

	// Centered radial axis starts at a negative radius
	_, err = NewUniform([]int{4, 1}, grid.Aligned("C0"))
	assert.ErrorIs(t, err, mesh.ErrValidation)

	_, err = NewMesh([][]float64{{1}, {4, 4}}, grid.Origin{})
	assert.ErrorIs(t, err, mesh.ErrValidation)

	_, err = NewUniform([]int{4}, grid.Origin{})
	assert.ErrorIs(t, err, mesh.ErrValidation)

	_, err = NewMesh([][]float64{{1}, {0}}, grid.Origin{})
	assert.ErrorIs(t, err, mesh.ErrValidation)

	// A zero inner radius is a degenerate but valid center cell
	m, err := NewUniform([]int{3, 6, 2}, grid.At(0, 0, 0))
	require.NoError(t, err)
	assert.ErrorIs(t, m.SetN([]int{3, 6}), mesh.ErrImmutable)
}
