// Package grid describes the immutable axis decomposition shared by the
// structured and tree mesh kinds.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/meshgrid/mesh"
)

// Shape is an immutable structured axis decomposition: per-axis cell width
// sequences and an origin. All accessors return copies.
type Shape struct {
	h  [][]float64
	x0 []float64
}

// NewShape validates and copies the widths and origin. Every axis must have
// at least one cell, every width must be positive and finite, and the origin
// must have one entry per axis.
func NewShape(h [][]float64, x0 []float64) (Shape, error) {
	dim := len(h)
	if dim < 1 || dim > 3 {
		return Shape{}, fmt.Errorf("%w: expected 1, 2 or 3 width sequences, got %d", mesh.ErrValidation, dim)
	}
	if len(x0) != dim {
		return Shape{}, fmt.Errorf("%w: origin has %d entries for a %dD shape", mesh.ErrValidation, len(x0), dim)
	}
	s := Shape{
		h:  make([][]float64, dim),
		x0: append([]float64(nil), x0...),
	}
	for a, ha := range h {
		if len(ha) == 0 {
			return Shape{}, fmt.Errorf("%w: axis %d has no cells", mesh.ErrValidation, a)
		}
		for i, w := range ha {
			if !(w > 0) || math.IsInf(w, 0) {
				return Shape{}, fmt.Errorf("%w: axis %d width %d is %g, widths must be positive",
					mesh.ErrValidation, a, i, w)
			}
		}
		s.h[a] = append([]float64(nil), ha...)
	}
	for a, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Shape{}, fmt.Errorf("%w: origin entry %d is %g", mesh.ErrValidation, a, v)
		}
	}
	return s, nil
}

// Dim returns the number of axes.
func (s Shape) Dim() int { return len(s.h) }

// N returns the number of cells along each axis.
func (s Shape) N() []int {
	n := make([]int, len(s.h))
	for a, ha := range s.h {
		n[a] = len(ha)
	}
	return n
}

// H returns a deep copy of the per-axis widths.
func (s Shape) H() [][]float64 {
	h := make([][]float64, len(s.h))
	for a := range s.h {
		h[a] = append([]float64(nil), s.h[a]...)
	}
	return h
}

// Widths returns a copy of the widths along axis a.
func (s Shape) Widths(a int) []float64 {
	return append([]float64(nil), s.h[a]...)
}

// X0 returns a copy of the origin.
func (s Shape) X0() []float64 {
	return append([]float64(nil), s.x0...)
}

// Extent returns the total length of axis a.
func (s Shape) Extent(a int) float64 {
	return floats.Sum(s.h[a])
}

// NodeVector returns the node positions along axis a: the origin followed by
// the cumulative sum of the widths.
func (s Shape) NodeVector(a int) []float64 {
	nodes := make([]float64, len(s.h[a])+1)
	floats.CumSum(nodes[1:], s.h[a])
	floats.AddConst(s.x0[a], nodes)
	return nodes
}

// CenterVector returns the cell center positions along axis a.
func (s Shape) CenterVector(a int) []float64 {
	nodes := s.NodeVector(a)
	centers := make([]float64, len(s.h[a]))
	for i := range centers {
		centers[i] = nodes[i] + s.h[a][i]/2
	}
	return centers
}

// Uniform returns unit-length width sequences with n[a] equal cells on axis a.
func Uniform(n ...int) [][]float64 {
	h := make([][]float64, len(n))
	for a, na := range n {
		h[a] = UniformWidths(na, 1)
	}
	return h
}

// UniformWidths divides length into n equal widths.
func UniformWidths(n int, length float64) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = length / float64(n)
	}
	return w
}
