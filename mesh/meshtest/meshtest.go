// Package meshtest holds test helpers shared by the mesh packages.
package meshtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/meshgrid/curvilinear"
	"github.com/notargets/meshgrid/cylindrical"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/tensor"
	"github.com/notargets/meshgrid/tree"
)

// AssertEquivalent checks that got reproduces want exactly: counts, per-axis
// counts, origin, every measure, normal and tangent array, and the
// kind-specific state (widths, leaf set, node coordinates). Floating point
// arrays are compared element-wise without tolerance.
func AssertEquivalent(t *testing.T, want, got mesh.Mesh) {
	t.Helper()
	require.Equal(t, want.Kind(), got.Kind(), "kind")
	assert.Equal(t, want.Dim(), got.Dim(), "dim")
	assert.Equal(t, want.X0(), got.X0(), "x0")

	wg, err := want.Geometry()
	require.NoError(t, err)
	gg, err := got.Geometry()
	require.NoError(t, err)

	assert.Equal(t, wg.NC, gg.NC, "nC")
	assert.Equal(t, wg.NF, gg.NF, "nF")
	assert.Equal(t, wg.NE, gg.NE, "nE")
	assert.Equal(t, wg.NN, gg.NN, "nN")
	assert.Equal(t, wg.VnC, gg.VnC, "vnC")
	assert.Equal(t, wg.VnF, gg.VnF, "vnF")
	assert.Equal(t, wg.VnE, gg.VnE, "vnE")
	assert.Equal(t, wg.VnN, gg.VnN, "vnN")

	assert.Equal(t, wg.Vol, gg.Vol, "vol")
	assert.Equal(t, wg.Area, gg.Area, "area")
	assert.Equal(t, wg.Edge, gg.Edge, "edge")
	assert.True(t, mat.Equal(wg.Normals, gg.Normals), "normals differ")
	assert.True(t, mat.Equal(wg.Tangents, gg.Tangents), "tangents differ")
	assert.True(t, mat.Equal(wg.CellCenters, gg.CellCenters), "cell centers differ")
	assert.True(t, mat.Equal(wg.Nodes, gg.Nodes), "nodes differ")

	switch w := want.(type) {
	case *tensor.Mesh:
		assert.Equal(t, w.H(), got.(*tensor.Mesh).H(), "h")
	case *cylindrical.Mesh:
		g := got.(*cylindrical.Mesh)
		assert.Equal(t, w.H(), g.H(), "h")
		assert.Equal(t, w.Periodic(), g.Periodic(), "periodic")
	case *tree.Mesh:
		g := got.(*tree.Mesh)
		assert.Equal(t, w.H(), g.H(), "h")
		assert.Equal(t, w.Leaves(), g.Leaves(), "leaves")
		assert.Equal(t, w.State(), g.State(), "state")
	case *curvilinear.Mesh:
		g := got.(*curvilinear.Mesh)
		assert.Equal(t, w.NodeShape(), g.NodeShape(), "node shape")
		assert.Equal(t, w.NodeCoordinates(), g.NodeCoordinates(), "node coordinates")
	default:
		t.Fatalf("unsupported mesh type %T", want)
	}
}

// AssertIndependent checks that a and b share no geometry storage.
func AssertIndependent(t *testing.T, a, b mesh.Mesh) {
	t.Helper()
	ga, err := a.Geometry()
	require.NoError(t, err)
	gb, err := b.Geometry()
	require.NoError(t, err)

	require.NotSame(t, ga, gb)
	if len(ga.Vol) > 0 {
		assert.NotSame(t, &ga.Vol[0], &gb.Vol[0], "vol is shared")
	}
	if len(ga.Area) > 0 {
		assert.NotSame(t, &ga.Area[0], &gb.Area[0], "area is shared")
	}
	if len(ga.Edge) > 0 {
		assert.NotSame(t, &ga.Edge[0], &gb.Edge[0], "edge is shared")
	}
	assert.NotSame(t, &ga.Normals.RawMatrix().Data[0], &gb.Normals.RawMatrix().Data[0], "normals are shared")
	assert.NotSame(t, &ga.Tangents.RawMatrix().Data[0], &gb.Tangents.RawMatrix().Data[0], "tangents are shared")
}
