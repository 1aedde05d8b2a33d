package tree

import (
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/partitions"
)

// buildGeometry computes leaf measures in numbering order. Measures are those
// of a tensor cell whose widths are the leaf's own, taken from the finest
// grid nodes it spans.
func (m *Mesh) buildGeometry(nb *Numbering) (*mesh.Geometry, error) {
	dim := m.dim
	g := mesh.NewGeometry(dim, nb.NC(), nb.NF(), nb.NE(), nb.NN())

	width := func(a, p, s int) float64 {
		return m.nodes[a][p+s] - m.nodes[a][p]
	}

	err := partitions.ForEachBlock(g.NC, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			leaf := nb.Leaves[i]
			s := m.cellSize(leaf.Level)
			v := 1.0
			for a := 0; a < dim; a++ {
				p := leaf.Origin[a]
				v *= width(a, p, s)
				g.CellCenters.Set(i, a, (m.nodes[a][p]+m.nodes[a][p+s])/2)
			}
			g.Vol[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = partitions.ForEachBlock(g.NF, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			k := nb.faces.Key(i)
			area := 1.0
			for b := 0; b < dim; b++ {
				if b != k.Axis {
					area *= width(b, k.P[b], k.Size)
				}
			}
			g.Area[i] = area
			g.Normals.Set(i, k.Axis, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = partitions.ForEachBlock(g.NE, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			k := nb.edges.Key(i)
			g.Edge[i] = width(k.Axis, k.P[k.Axis], k.Size)
			g.Tangents.Set(i, k.Axis, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, k := range nb.nodes.LocalToGlobal {
		for a := 0; a < dim; a++ {
			g.Nodes.Set(i, a, m.nodes[a][k.P[a]])
		}
	}

	return g, g.Validate(dim)
}
