// Package tensor builds fully structured tensor-product meshes from per-axis
// cell widths.
package tensor

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/partitions"
)

// Mesh is a structured tensor-product mesh. Its shape and all derived arrays
// are fixed at construction.
type Mesh struct {
	shape  grid.Shape
	counts Counts
	geom   *mesh.Geometry
}

var _ mesh.Mesh = (*Mesh)(nil)

// NewMesh builds a tensor mesh from per-axis widths h and an origin.
func NewMesh(h [][]float64, origin grid.Origin) (*Mesh, error) {
	x0, err := origin.Resolve(h)
	if err != nil {
		return nil, err
	}
	shape, err := grid.NewShape(h, x0)
	if err != nil {
		return nil, err
	}
	m := &Mesh{
		shape:  shape,
		counts: CountEntities(shape.N(), nil),
	}
	if m.geom, err = m.buildGeometry(); err != nil {
		return nil, fmt.Errorf("tensor mesh: %w", err)
	}
	log.Debug().Str("kind", mesh.Tensor.String()).Ints("vnC", m.counts.VnC).
		Int("nC", m.counts.NC).Int("nF", m.counts.NF).Int("nE", m.counts.NE).
		Msg("built mesh")
	return m, nil
}

// NewUniform builds a tensor mesh over the unit box with n[a] equal cells on axis a.
func NewUniform(n []int, origin grid.Origin) (*Mesh, error) {
	return NewMesh(grid.Uniform(n...), origin)
}

func (m *Mesh) Kind() mesh.Kind { return mesh.Tensor }

func (m *Mesh) Dim() int { return m.shape.Dim() }

func (m *Mesh) X0() []float64 { return m.shape.X0() }

func (m *Mesh) Geometry() (*mesh.Geometry, error) { return m.geom, nil }

func (m *Mesh) SetN(n []int) error { return mesh.RejectShapeChange(m.shape.N(), n) }

// Shape returns the immutable axis decomposition.
func (m *Mesh) Shape() grid.Shape { return m.shape }

// H returns a copy of the per-axis widths.
func (m *Mesh) H() [][]float64 { return m.shape.H() }

// Counts returns a copy of the structured counts.
func (m *Mesh) Counts() Counts { return m.counts.Clone() }

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

	// Cell volumes are the product of the cell's widths
	err := partitions.ForEachBlock(c.NC, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			idx := Unravel(i, c.VnC)
			v := 1.0
			for a := 0; a < dim; a++ {
				v *= h[a][idx[a]]
				g.CellCenters.Set(i, a, centers[a][idx[a]])
			}
			g.Vol[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Face areas are the product of the widths tangential to the face
	for a := 0; a < dim; a++ {
		dims, off := c.FaceDims[a], c.FaceOffset(a)
		err = partitions.ForEachBlock(c.VnF[a], func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				idx := Unravel(i, dims)
				area := 1.0
				for b := 0; b < dim; b++ {
					if b != a {
						area *= h[b][idx[b]]
					}
				}
				g.Area[off+i] = area
				g.Normals.Set(off+i, a, 1)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Edge lengths are the width along the edge
	for a := 0; a < dim; a++ {
		dims, off := c.EdgeDims[a], c.EdgeOffset(a)
		err = partitions.ForEachBlock(c.VnE[a], func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				idx := Unravel(i, dims)
				g.Edge[off+i] = h[a][idx[a]]
				g.Tangents.Set(off+i, a, 1)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = partitions.ForEachBlock(c.NN, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			idx := Unravel(i, c.VnN)
			for a := 0; a < dim; a++ {
				g.Nodes.Set(i, a, nodes[a][idx[a]])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return g, g.Validate(dim)
}
