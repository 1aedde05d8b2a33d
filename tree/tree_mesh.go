// Package tree implements an adaptively refined quad/oct-tree mesh over a
// structured base grid.
//
// The base widths define the finest grid: every axis must have a power of
// two cells. The coarsest cells (level 0) are the largest cubes, in finest
// cells, that tile the base grid, and a cell at level l spans 2^(L-l) finest
// cells per axis where L is the maximum level. Cells are addressed by their
// level and the finest-grid index of their low corner.
//
// A mesh moves through three states. It is created Unrefined; Refine (and
// Balance, when it splits anything) moves it to Refined; Number computes the
// cell, face, edge and node indices and the geometry and moves it to
// Numbered. Index and geometry queries fail with mesh.ErrNumberingStale
// unless the mesh is Numbered.
package tree

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/tensor"
)

// State is the lifecycle state of a tree mesh
type State uint8

const (
	Unrefined State = iota
	Refined
	Numbered
)

func (s State) String() string {
	switch s {
	case Unrefined:
		return "unrefined"
	case Refined:
		return "refined"
	case Numbered:
		return "numbered"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Mesh is an adaptive tree mesh. It is not safe for concurrent mutation.
type Mesh struct {
	shape    grid.Shape
	dim      int
	maxLevel int
	rootSize int         // finest cells per axis spanned by a level 0 cell
	rootDims []int       // level 0 cells per axis
	nodes    [][]float64 // finest-grid node positions per axis

	roots []*cell // Fortran order over rootDims
	state State

	numbering *Numbering
	geom      *mesh.Geometry
}

var _ mesh.Mesh = (*Mesh)(nil)

// NewMesh creates an unrefined tree over the finest-grid widths h.
func NewMesh(h [][]float64, origin grid.Origin) (*Mesh, error) {
	x0, err := origin.Resolve(h)
	if err != nil {
		return nil, err
	}
	shape, err := grid.NewShape(h, x0)
	if err != nil {
		return nil, err
	}
	n := shape.N()
	minN := n[0]
	for a, na := range n {
		if na&(na-1) != 0 {
			return nil, fmt.Errorf("%w: tree mesh axis %d has %d cells, must be a power of 2",
				mesh.ErrValidation, a, na)
		}
		if na < minN {
			minN = na
		}
	}

	m := &Mesh{
		shape:    shape,
		dim:      shape.Dim(),
		maxLevel: bits.TrailingZeros(uint(minN)),
		nodes:    make([][]float64, shape.Dim()),
		rootDims: make([]int, shape.Dim()),
	}
	m.rootSize = 1 << m.maxLevel
	for a := range n {
		m.rootDims[a] = n[a] / m.rootSize
		m.nodes[a] = shape.NodeVector(a)
	}
	m.roots = m.newRoots()
	return m, nil
}

// NewUniform creates an unrefined tree over the unit box with n[a] finest
// cells along axis a.
func NewUniform(n []int, origin grid.Origin) (*Mesh, error) {
	return NewMesh(grid.Uniform(n...), origin)
}

func (m *Mesh) newRoots() []*cell {
	count := 1
	for _, r := range m.rootDims {
		count *= r
	}
	roots := make([]*cell, count)
	for i := range roots {
		idx := tensor.Unravel(i, m.rootDims)
		c := &cell{index: -1}
		for a := 0; a < m.dim; a++ {
			c.origin[a] = idx[a] * m.rootSize
		}
		roots[i] = c
	}
	return roots
}

func (m *Mesh) Kind() mesh.Kind { return mesh.Tree }

func (m *Mesh) Dim() int { return m.dim }

func (m *Mesh) X0() []float64 { return m.shape.X0() }

func (m *Mesh) SetN(n []int) error { return mesh.RejectShapeChange(m.shape.N(), n) }

// Geometry returns the leaf geometry. It fails with mesh.ErrNumberingStale
// unless the mesh is numbered.
func (m *Mesh) Geometry() (*mesh.Geometry, error) {
	if err := m.requireNumbered("geometry"); err != nil {
		return nil, err
	}
	return m.geom, nil
}

// Numbering returns the index assignment. It fails with
// mesh.ErrNumberingStale unless the mesh is numbered.
func (m *Mesh) Numbering() (*Numbering, error) {
	if err := m.requireNumbered("numbering"); err != nil {
		return nil, err
	}
	return m.numbering, nil
}

func (m *Mesh) requireNumbered(what string) error {
	if m.state != Numbered {
		return fmt.Errorf("%w: %s queried while the mesh is %s, call Number first",
			mesh.ErrNumberingStale, what, m.state)
	}
	return nil
}

func (m *Mesh) State() State { return m.state }

// MaxLevel is the level of a cell one finest cell wide.
func (m *Mesh) MaxLevel() int { return m.maxLevel }

// Shape returns the finest-grid decomposition.
func (m *Mesh) Shape() grid.Shape { return m.shape }

// H returns a copy of the finest-grid widths.
func (m *Mesh) H() [][]float64 { return m.shape.H() }

// cellSize is the number of finest cells per axis spanned by a cell at level.
func (m *Mesh) cellSize(level int) int { return m.rootSize >> level }

// Leaves returns the current leaf set in traversal order: depth first over
// the level 0 cells in Fortran order, children x fastest.
func (m *Mesh) Leaves() []LeafCell {
	var leaves []LeafCell
	m.walkLeaves(func(c *cell) {
		leaves = append(leaves, LeafCell{
			Level:  c.level,
			Origin: append([]int(nil), c.origin[:m.dim]...),
		})
	})
	return leaves
}

func (m *Mesh) walkLeaves(fn func(*cell)) {
	for _, r := range m.roots {
		r.walkLeaves(fn)
	}
}

// cellCenter is the physical center of c.
func (m *Mesh) cellCenter(c *cell) []float64 {
	s := m.cellSize(c.level)
	center := make([]float64, m.dim)
	for a := 0; a < m.dim; a++ {
		lo, hi := m.nodes[a][c.origin[a]], m.nodes[a][c.origin[a]+s]
		center[a] = (lo + hi) / 2
	}
	return center
}

// leafAt returns the leaf holding finest-grid cell p.
func (m *Mesh) leafAt(p [3]int) *cell {
	var ridx [3]int
	for a := 0; a < m.dim; a++ {
		ridx[a] = p[a] / m.rootSize
	}
	c := m.roots[tensor.Ravel(ridx, m.rootDims)]
	for !c.isLeaf() {
		c = c.childContaining(m.dim, m.cellSize(c.level), p)
	}
	return c
}

// Locate returns the index of the leaf containing point. Points on a shared
// face belong to the upper cell, except on the upper domain boundary.
func (m *Mesh) Locate(point []float64) (int, error) {
	if err := m.requireNumbered("locate"); err != nil {
		return -1, err
	}
	if len(point) != m.dim {
		return -1, fmt.Errorf("%w: point %v has %d coordinates, mesh is %dD",
			mesh.ErrValidation, point, len(point), m.dim)
	}
	var p [3]int
	for a := 0; a < m.dim; a++ {
		nodes := m.nodes[a]
		last := len(nodes) - 1
		if math.IsNaN(point[a]) || point[a] < nodes[0] || point[a] > nodes[last] {
			return -1, fmt.Errorf("%w: point %v lies outside the mesh", mesh.ErrValidation, point)
		}
		// First node strictly above the point, less one
		i := sort.Search(len(nodes), func(k int) bool { return nodes[k] > point[a] }) - 1
		if i >= last {
			i = last - 1
		}
		p[a] = i
	}
	return m.leafAt(p).index, nil
}
