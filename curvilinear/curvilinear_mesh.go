// Package curvilinear builds meshes from explicit, logically structured node
// coordinate arrays. Cells need not be orthogonal.
package curvilinear

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/meshgrid/element"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/partitions"
	"github.com/notargets/meshgrid/tensor"
)

// DegenerateTolerance is the smallest face area or edge length accepted.
const DegenerateTolerance = 1e-14

// Mesh is a curvilinear mesh. Node i has coordinates coords[a][i] along axis
// a, with nodes ordered x fastest over the node shape.
//
// Measures are taken from corner 0 of each entity: a cell's volume is the
// (signed) triple product of its three edge vectors in 3D, the cross product
// of its two edge vectors in 2D; a face's area and normal come from the cross
// product of its two edge vectors.
type Mesh struct {
	shape  []int
	coords [][]float64
	counts tensor.Counts
	geom   *mesh.Geometry
}

var _ mesh.Mesh = (*Mesh)(nil)

// NewMesh builds a mesh from node coordinate arrays. shape is the number of
// nodes along each axis and every coords[a] must hold prod(shape) values.
func NewMesh(shape []int, coords [][]float64) (*Mesh, error) {
	dim := len(shape)
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: expected 1, 2 or 3 axes, got %d", mesh.ErrValidation, dim)
	}
	if len(coords) != dim {
		return nil, fmt.Errorf("%w: %d coordinate arrays for a %dD node shape",
			mesh.ErrValidation, len(coords), dim)
	}
	nn := 1
	for a, s := range shape {
		if s < 2 {
			return nil, fmt.Errorf("%w: axis %d has %d nodes, need at least 2", mesh.ErrValidation, a, s)
		}
		if s > math.MaxInt/nn {
			return nil, fmt.Errorf("%w: node shape %v overflows the node count", mesh.ErrValidation, shape)
		}
		nn *= s
	}
	m := &Mesh{
		shape:  append([]int(nil), shape...),
		coords: make([][]float64, dim),
	}
	for a, x := range coords {
		if len(x) != nn {
			return nil, fmt.Errorf("%w: coordinate array %d has %d values, node shape %v needs %d",
				mesh.ErrValidation, a, len(x), shape, nn)
		}
		for i, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: coordinate %d of node %d is %g", mesh.ErrValidation, a, i, v)
			}
		}
		m.coords[a] = append([]float64(nil), x...)
	}

	vnC := make([]int, dim)
	for a := range vnC {
		vnC[a] = shape[a] - 1
	}
	m.counts = tensor.CountEntities(vnC, nil)

	var err error
	if m.geom, err = m.buildGeometry(); err != nil {
		return nil, fmt.Errorf("curvilinear mesh: %w", err)
	}
	log.Debug().Str("kind", mesh.Curvilinear.String()).Ints("nodeShape", m.shape).
		Int("nC", m.counts.NC).Msg("built mesh")
	return m, nil
}

// NewFromIncrements builds the tensor-product node grid whose axis a has the
// node positions origin[a] + cumsum(h[a]).
func NewFromIncrements(h [][]float64, origin []float64) (*Mesh, error) {
	if origin == nil {
		origin = make([]float64, len(h))
	}
	if len(origin) != len(h) {
		return nil, fmt.Errorf("%w: origin has %d entries for %d axes", mesh.ErrValidation, len(origin), len(h))
	}
	vectors := make([][]float64, len(h))
	for a := range h {
		vectors[a] = NodesFromWidths(h[a], origin[a])
	}
	shape, coords := NDGrid(vectors...)
	return NewMesh(shape, coords)
}

func (m *Mesh) Kind() mesh.Kind { return mesh.Curvilinear }

func (m *Mesh) Dim() int { return len(m.shape) }

// X0 is the position of node 0.
func (m *Mesh) X0() []float64 {
	x0 := make([]float64, len(m.coords))
	for a := range x0 {
		x0[a] = m.coords[a][0]
	}
	return x0
}

func (m *Mesh) Geometry() (*mesh.Geometry, error) { return m.geom, nil }

func (m *Mesh) SetN(n []int) error { return mesh.RejectShapeChange(m.counts.VnC, n) }

// NodeShape returns the number of nodes along each axis.
func (m *Mesh) NodeShape() []int { return append([]int(nil), m.shape...) }

// NodeCoordinates returns a deep copy of the coordinate arrays.
func (m *Mesh) NodeCoordinates() [][]float64 {
	c := make([][]float64, len(m.coords))
	for a := range m.coords {
		c[a] = append([]float64(nil), m.coords[a]...)
	}
	return c
}

func (m *Mesh) Counts() tensor.Counts { return m.counts.Clone() }

func (m *Mesh) node(p [3]int) r3.Vec {
	i := tensor.Ravel(p, m.shape)
	var v [3]float64
	for a := range m.coords {
		v[a] = m.coords[a][i]
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// edgeVec is the vector from node p to its neighbour one step along axis a.
func (m *Mesh) edgeVec(p [3]int, a int) r3.Vec {
	q := p
	q[a]++
	return r3.Sub(m.node(q), m.node(p))
}

func setRow(d *mat.Dense, i int, v r3.Vec) {
	_, c := d.Dims()
	comps := [3]float64{v.X, v.Y, v.Z}
	for j := 0; j < c; j++ {
		d.Set(i, j, comps[j])
	}
}

func (m *Mesh) cellVolume(p [3]int) float64 {
	switch len(m.shape) {
	case 1:
		return m.edgeVec(p, 0).X
	case 2:
		ex, ey := m.edgeVec(p, 0), m.edgeVec(p, 1)
		return ex.X*ey.Y - ex.Y*ey.X
	}
	ex, ey, ez := m.edgeVec(p, 0), m.edgeVec(p, 1), m.edgeVec(p, 2)
	return r3.Dot(r3.Cross(ex, ey), ez)
}

// faceVector returns the area-weighted normal of the face of orientation a
// whose low corner is node p.
func (m *Mesh) faceVector(p [3]int, a int) r3.Vec {
	switch len(m.shape) {
	case 1:
		// Faces of a 1D mesh are its nodes, with unit area
		return r3.Vec{X: 1}
	case 2:
		if a == 0 {
			t := m.edgeVec(p, 1)
			return r3.Vec{X: t.Y, Y: -t.X}
		}
		t := m.edgeVec(p, 0)
		return r3.Vec{X: -t.Y, Y: t.X}
	}
	b, c := (a+1)%3, (a+2)%3
	return r3.Cross(m.edgeVec(p, b), m.edgeVec(p, c))
}

func (m *Mesh) buildGeometry() (*mesh.Geometry, error) {
	var (
		dim = len(m.shape)
		c   = m.counts
		rc  = element.MustReferenceCell(dim)
	)
	g := mesh.NewGeometry(dim, c.NC, c.NF, c.NE, c.NN)
	g.VnC = append([]int(nil), c.VnC...)
	g.VnN = append([]int(nil), c.VnN...)
	g.VnF = append([]int(nil), c.VnF...)
	g.VnE = append([]int(nil), c.VnE...)

	err := partitions.ForEachBlock(c.NC, func(lo, hi int) error {
		for n := lo; n < hi; n++ {
			p := tensor.Unravel(n, c.VnC)
			vol := m.cellVolume(p)
			if !(vol > 0) {
				return fmt.Errorf("%w: cell %d at %v has non-positive volume %g",
					mesh.ErrValidation, n, p[:dim], vol)
			}
			g.Vol[n] = vol

			var center r3.Vec
			for _, off := range rc.Corners {
				q := p
				for a := 0; a < dim; a++ {
					q[a] += off[a]
				}
				center = r3.Add(center, m.node(q))
			}
			setRow(g.CellCenters, n, r3.Scale(1/float64(len(rc.Corners)), center))
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
				p := tensor.Unravel(n, dims)
				v := m.faceVector(p, a)
				area := r3.Norm(v)
				if area < DegenerateTolerance {
					return fmt.Errorf("%w: face %d has degenerate area %g", mesh.ErrValidation, off+n, area)
				}
				g.Area[off+n] = area
				setRow(g.Normals, off+n, r3.Scale(1/area, v))
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
				e := m.edgeVec(tensor.Unravel(n, dims), a)
				length := r3.Norm(e)
				if length < DegenerateTolerance {
					return fmt.Errorf("%w: edge %d has degenerate length %g", mesh.ErrValidation, off+n, length)
				}
				g.Edge[off+n] = length
				setRow(g.Tangents, off+n, r3.Scale(1/length, e))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for n := 0; n < c.NN; n++ {
		for a := 0; a < dim; a++ {
			g.Nodes.Set(n, a, m.coords[a][n])
		}
	}

	return g, g.Validate(dim)
}
