// Package cylindrical reinterprets a structured tensor decomposition in
// (r, θ[, z]) coordinates. Axis 1 is angular, in radians.
package cylindrical

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/partitions"
	"github.com/notargets/meshgrid/tensor"
)

// FullCircleTolerance is how close the angular widths must sum to 2π for the
// mesh to be treated as periodic.
const FullCircleTolerance = 1e-10

// Mesh is a cylindrical mesh. Measures are computed in cylindrical
// coordinates; normals and tangents are expressed in Cartesian components of
// the local (radial, tangential, axial) basis, so they vary with θ.
type Mesh struct {
	shape    grid.Shape
	periodic bool
	counts   tensor.Counts
	geom     *mesh.Geometry
}

var _ mesh.Mesh = (*Mesh)(nil)

// NewMesh builds a cylindrical mesh from widths h = [hr, hθ] or [hr, hθ, hz].
func NewMesh(h [][]float64, origin grid.Origin) (*Mesh, error) {
	if len(h) != 2 && len(h) != 3 {
		return nil, fmt.Errorf("%w: cylindrical mesh needs 2 or 3 width sequences, got %d",
			mesh.ErrValidation, len(h))
	}
	x0, err := origin.Resolve(h)
	if err != nil {
		return nil, err
	}
	shape, err := grid.NewShape(h, x0)
	if err != nil {
		return nil, err
	}
	if x0[0] < 0 {
		return nil, fmt.Errorf("%w: negative radius, x0[0] = %g", mesh.ErrValidation, x0[0])
	}
	sweep := shape.Extent(1)
	if sweep > 2*math.Pi+FullCircleTolerance {
		return nil, fmt.Errorf("%w: angular widths sum to %g, more than a full circle",
			mesh.ErrValidation, sweep)
	}

	m := &Mesh{
		shape:    shape,
		periodic: math.Abs(sweep-2*math.Pi) <= FullCircleTolerance,
	}
	m.counts = tensor.CountEntities(shape.N(), []bool{false, m.periodic, false})
	if m.geom, err = m.buildGeometry(); err != nil {
		return nil, fmt.Errorf("cylindrical mesh: %w", err)
	}
	log.Debug().Str("kind", mesh.Cylindrical.String()).Ints("vnC", m.counts.VnC).
		Bool("periodic", m.periodic).Int("nC", m.counts.NC).Msg("built mesh")
	return m, nil
}

// NewUniform builds a mesh with n[a] equal cells per axis: unit radius and
// height, and a full circle divided into n[1] wedges.
func NewUniform(n []int, origin grid.Origin) (*Mesh, error) {
	h := grid.Uniform(n...)
	if len(n) > 1 {
		h[1] = grid.UniformWidths(n[1], 2*math.Pi)
	}
	return NewMesh(h, origin)
}

func (m *Mesh) Kind() mesh.Kind { return mesh.Cylindrical }

func (m *Mesh) Dim() int { return m.shape.Dim() }

func (m *Mesh) X0() []float64 { return m.shape.X0() }

func (m *Mesh) Geometry() (*mesh.Geometry, error) { return m.geom, nil }

func (m *Mesh) SetN(n []int) error { return mesh.RejectShapeChange(m.shape.N(), n) }

// Periodic reports whether the angular axis wraps a full circle.
func (m *Mesh) Periodic() bool { return m.periodic }

func (m *Mesh) Shape() grid.Shape { return m.shape }

// H returns a copy of the per-axis widths.
func (m *Mesh) H() [][]float64 { return m.shape.H() }

func (m *Mesh) Counts() tensor.Counts { return m.counts.Clone() }

func radial(theta float64) r3.Vec {
	return r3.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
}

func azimuthal(theta float64) r3.Vec {
	return r3.Vec{X: -math.Sin(theta), Y: math.Cos(theta)}
}

var axial = r3.Vec{Z: 1}

func setRow(m *mat.Dense, i int, v r3.Vec) {
	_, c := m.Dims()
	comps := [3]float64{v.X, v.Y, v.Z}
	for j := 0; j < c; j++ {
		m.Set(i, j, comps[j])
	}
}

func (m *Mesh) buildGeometry() (*mesh.Geometry, error) {
	var (
		dim = m.shape.Dim()
		c   = m.counts
		h   = m.shape.H()
	)
	g := mesh.NewGeometry(dim, c.NC, c.NF, c.NE, c.NN)
	g.VnC = append([]int(nil), c.VnC...)
	g.VnN = append([]int(nil), c.VnN...)
	g.VnF = append([]int(nil), c.VnF...)
	g.VnE = append([]int(nil), c.VnE...)

	nodes := make([][]float64, dim)
	centers := make([][]float64, dim)
	for a := 0; a < dim; a++ {
		nodes[a] = m.shape.NodeVector(a)
		centers[a] = m.shape.CenterVector(a)
	}
	r, theta := nodes[0], nodes[1]
	thetaC := centers[1]

	// dz is 1 for 2D meshes so the same formulas hold
	dz := func(k int) float64 {
		if dim == 2 {
			return 1
		}
		return h[2][k]
	}
	// Area of the annular sector between radial nodes i and i+1
	sector := func(i, j int) float64 {
		return 0.5 * (r[i+1]*r[i+1] - r[i]*r[i]) * h[1][j]
	}

	err := partitions.ForEachBlock(c.NC, func(lo, hi int) error {
		for n := lo; n < hi; n++ {
			idx := tensor.Unravel(n, c.VnC)
			g.Vol[n] = sector(idx[0], idx[1]) * dz(idx[2])
			for a := 0; a < dim; a++ {
				g.CellCenters.Set(n, a, centers[a][idx[a]])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for a := 0; a < dim; a++ {
		dims, off := c.FaceDims[a], c.FaceOffset(a)
		err = partitions.ForEachBlock(c.VnF[a], func(lo, hi int) error {
			for n := lo; n < hi; n++ {
				idx := tensor.Unravel(n, dims)
				i, j, k := idx[0], idx[1], idx[2]
				switch a {
				case 0:
					g.Area[off+n] = r[i] * h[1][j] * dz(k)
					setRow(g.Normals, off+n, radial(thetaC[j]))
				case 1:
					g.Area[off+n] = h[0][i] * dz(k)
					setRow(g.Normals, off+n, azimuthal(theta[j]))
				case 2:
					g.Area[off+n] = sector(i, j)
					setRow(g.Normals, off+n, axial)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for a := 0; a < dim; a++ {
		dims, off := c.EdgeDims[a], c.EdgeOffset(a)
		err = partitions.ForEachBlock(c.VnE[a], func(lo, hi int) error {
			for n := lo; n < hi; n++ {
				idx := tensor.Unravel(n, dims)
				i, j, k := idx[0], idx[1], idx[2]
				switch a {
				case 0:
					g.Edge[off+n] = h[0][i]
					setRow(g.Tangents, off+n, radial(theta[j]))
				case 1:
					g.Edge[off+n] = r[i] * h[1][j]
					setRow(g.Tangents, off+n, azimuthal(thetaC[j]))
				case 2:
					g.Edge[off+n] = h[2][k]
					setRow(g.Tangents, off+n, axial)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = partitions.ForEachBlock(c.NN, func(lo, hi int) error {
		for n := lo; n < hi; n++ {
			idx := tensor.Unravel(n, c.VnN)
			for a := 0; a < dim; a++ {
				g.Nodes.Set(n, a, nodes[a][idx[a]])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return g, g.Validate(dim)
}
