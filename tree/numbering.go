package tree

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/notargets/meshgrid/element"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/utils"
)

// EntityKind names the kind of mesh entity a hanging relation points at
type EntityKind uint8

const (
	FaceEntity EntityKind = iota
	EdgeEntity
	NodeEntity
)

func (k EntityKind) String() string {
	switch k {
	case FaceEntity:
		return "face"
	case EdgeEntity:
		return "edge"
	case NodeEntity:
		return "node"
	}
	return fmt.Sprintf("EntityKind(%d)", uint8(k))
}

// HangingRelation links a fine entity on a non-conforming interface to the
// coarse entity it lies on. A hanging edge may lie on a coarse edge or, in
// 3D, inside a coarse face; a hanging node on a coarse edge or face.
type HangingRelation struct {
	Fine   int        // index of the hanging entity
	Coarse int        // index of the coarse entity
	On     EntityKind // kind of the coarse entity
}

// entityKey identifies a face, edge or node on the finest grid. Faces are
// keyed by normal axis, edges by direction; Size is the extent in finest
// cells and P the low corner. Nodes use only P.
type entityKey struct {
	Axis int
	Size int
	P    [3]int
}

// Numbering is the index assignment for the current leaf set. Cells are
// numbered in traversal order. Faces, edges and nodes are numbered in order
// of first appearance while visiting the cells in that order, each cell
// listing its entities in reference cell order.
type Numbering struct {
	Leaves []LeafCell // [cell]

	CellFaces [][]int // [cell][local face]
	CellEdges [][]int // [cell][local edge]
	CellNodes [][]int // [cell][local corner]

	HangingFaces []HangingRelation
	HangingEdges []HangingRelation
	HangingNodes []HangingRelation

	faces *utils.IndexMap[entityKey]
	edges *utils.IndexMap[entityKey]
	nodes *utils.IndexMap[entityKey]
}

func (nb *Numbering) NC() int { return len(nb.Leaves) }
func (nb *Numbering) NF() int { return nb.faces.Len() }
func (nb *Numbering) NE() int { return nb.edges.Len() }
func (nb *Numbering) NN() int { return nb.nodes.Len() }

// Number assigns cell, face, edge and node indices, finds the hanging
// entities and computes the leaf geometry. Numbering a mesh twice without an
// intervening refinement yields the same assignment.
func (m *Mesh) Number() error {
	if m.state == Unrefined {
		return fmt.Errorf("%w: mesh has not been refined", mesh.ErrRefinement)
	}
	var (
		rc      = element.MustReferenceCell(m.dim)
		nLeaves = m.countLeaves()
		nb      = &Numbering{
			Leaves:    make([]LeafCell, 0, nLeaves),
			CellFaces: make([][]int, 0, nLeaves),
			CellEdges: make([][]int, 0, nLeaves),
			CellNodes: make([][]int, 0, nLeaves),
			faces:     utils.NewIndexMap[entityKey](nLeaves * rc.Properties.NFaces / 2),
			edges:     utils.NewIndexMap[entityKey](nLeaves * rc.Properties.NEdges / 2),
			nodes:     utils.NewIndexMap[entityKey](nLeaves),
		}
	)
	var cells []*cell
	m.walkLeaves(func(c *cell) {
		s := m.cellSize(c.level)
		nb.Leaves = append(nb.Leaves, LeafCell{Level: c.level, Origin: append([]int(nil), c.origin[:m.dim]...)})
		cells = append(cells, c)

		faces := make([]int, len(rc.Faces))
		for k, f := range rc.Faces {
			key := entityKey{Axis: f.Axis, Size: s, P: offset(c.origin, f.Offset, s)}
			if m.dim == 1 {
				key.Size = 0
			}
			faces[k], _ = nb.faces.Insert(key)
		}
		edges := make([]int, len(rc.Edges))
		for k, e := range rc.Edges {
			edges[k], _ = nb.edges.Insert(entityKey{Axis: e.Axis, Size: s, P: offset(c.origin, e.Offset, s)})
		}
		nodes := make([]int, len(rc.Corners))
		for k, corner := range rc.Corners {
			nodes[k], _ = nb.nodes.Insert(entityKey{P: offset(c.origin, corner, s)})
		}
		nb.CellFaces = append(nb.CellFaces, faces)
		nb.CellEdges = append(nb.CellEdges, edges)
		nb.CellNodes = append(nb.CellNodes, nodes)
	})
	nb.findHanging(m.dim, m.rootSize)

	geom, err := m.buildGeometry(nb)
	if err != nil {
		return fmt.Errorf("tree mesh: %w", err)
	}
	for i, c := range cells {
		c.index = i
	}
	m.numbering, m.geom, m.state = nb, geom, Numbered

	log.Debug().Int("nC", nb.NC()).Int("nF", nb.NF()).Int("nE", nb.NE()).Int("nN", nb.NN()).
		Int("hangingFaces", len(nb.HangingFaces)).Int("hangingEdges", len(nb.HangingEdges)).
		Int("hangingNodes", len(nb.HangingNodes)).Msg("numbered tree mesh")
	return nil
}

func offset(origin, off [3]int, s int) [3]int {
	p := origin
	for a := range p {
		p[a] += off[a] * s
	}
	return p
}

func floorTo(v, s int) int { return v - v%s }

// findHanging records, for every face, edge and node, the nearest coarser
// entity containing it, if any. Candidate coarse entities are found by
// snapping the fine entity's corner to the coarse size and looking the key up.
func (nb *Numbering) findHanging(dim, maxSize int) {
	for i, k := range nb.faces.LocalToGlobal {
		if k.Size == 0 {
			continue
		}
		for s := 2 * k.Size; s <= maxSize; s *= 2 {
			ck := entityKey{Axis: k.Axis, Size: s, P: k.P}
			for b := 0; b < dim; b++ {
				if b != k.Axis {
					ck.P[b] = floorTo(k.P[b], s)
				}
			}
			if j, ok := nb.faces.Index(ck); ok {
				nb.HangingFaces = append(nb.HangingFaces, HangingRelation{Fine: i, Coarse: j, On: FaceEntity})
				break
			}
		}
	}

	for i, k := range nb.edges.LocalToGlobal {
		if rel, ok := nb.edgeHost(dim, maxSize, k); ok {
			rel.Fine = i
			nb.HangingEdges = append(nb.HangingEdges, rel)
		}
	}

	for i, k := range nb.nodes.LocalToGlobal {
		if rel, ok := nb.nodeHost(dim, maxSize, k.P); ok {
			rel.Fine = i
			nb.HangingNodes = append(nb.HangingNodes, rel)
		}
	}
}

func (nb *Numbering) edgeHost(dim, maxSize int, k entityKey) (HangingRelation, bool) {
	a := k.Axis
	for s := 2 * k.Size; s <= maxSize; s *= 2 {
		ck := k
		ck.Size = s
		ck.P[a] = floorTo(k.P[a], s)
		if j, ok := nb.edges.Index(ck); ok {
			return HangingRelation{Coarse: j, On: EdgeEntity}, true
		}
	}
	if dim < 3 {
		return HangingRelation{}, false
	}
	for s := 2 * k.Size; s <= maxSize; s *= 2 {
		for b := 0; b < 3; b++ {
			c := 3 - a - b
			if b == a || k.P[c]%s == 0 {
				continue
			}
			fk := entityKey{Axis: b, Size: s, P: k.P}
			fk.P[a] = floorTo(k.P[a], s)
			fk.P[c] = floorTo(k.P[c], s)
			if j, ok := nb.faces.Index(fk); ok {
				return HangingRelation{Coarse: j, On: FaceEntity}, true
			}
		}
	}
	return HangingRelation{}, false
}

func (nb *Numbering) nodeHost(dim, maxSize int, p [3]int) (HangingRelation, bool) {
	for s := 2; s <= maxSize; s *= 2 {
		for a := 0; a < dim; a++ {
			if p[a]%s == 0 {
				continue
			}
			ek := entityKey{Axis: a, Size: s, P: p}
			ek.P[a] = floorTo(p[a], s)
			if j, ok := nb.edges.Index(ek); ok {
				return HangingRelation{Coarse: j, On: EdgeEntity}, true
			}
		}
	}
	if dim < 3 {
		return HangingRelation{}, false
	}
	for s := 2; s <= maxSize; s *= 2 {
		for b := 0; b < 3; b++ {
			c1, c2 := (b+1)%3, (b+2)%3
			if p[c1]%s == 0 || p[c2]%s == 0 {
				continue
			}
			fk := entityKey{Axis: b, Size: s, P: p}
			fk.P[c1] = floorTo(p[c1], s)
			fk.P[c2] = floorTo(p[c2], s)
			if j, ok := nb.faces.Index(fk); ok {
				return HangingRelation{Coarse: j, On: FaceEntity}, true
			}
		}
	}
	return HangingRelation{}, false
}

// Verify checks that every index map is a bijection onto its range and that
// every face, edge and node is referenced by at least one cell.
func (nb *Numbering) Verify() error {
	maps := []struct {
		name  string
		im    *utils.IndexMap[entityKey]
		cells [][]int
	}{
		{"face", nb.faces, nb.CellFaces},
		{"edge", nb.edges, nb.CellEdges},
		{"node", nb.nodes, nb.CellNodes},
	}
	for _, mp := range maps {
		if err := mp.im.Verify(); err != nil {
			return fmt.Errorf("%s numbering: %w", mp.name, err)
		}
		if len(mp.cells) != nb.NC() {
			return fmt.Errorf("%s connectivity has %d cells, expected %d", mp.name, len(mp.cells), nb.NC())
		}
		used := make([]bool, mp.im.Len())
		for ci, ids := range mp.cells {
			for _, id := range ids {
				if id < 0 || id >= len(used) {
					return fmt.Errorf("cell %d references %s %d, max %d", ci, mp.name, id, len(used)-1)
				}
				used[id] = true
			}
		}
		for id, ok := range used {
			if !ok {
				return fmt.Errorf("%s %d is not referenced by any cell", mp.name, id)
			}
		}
	}
	return nil
}

// Verify checks a numbered mesh: leaf indices are a permutation of the cells
// and the entity numbering is consistent.
func (m *Mesh) Verify() error {
	nb, err := m.Numbering()
	if err != nil {
		return err
	}
	indices := make([]int, 0, nb.NC())
	m.walkLeaves(func(c *cell) { indices = append(indices, c.index) })
	if err := utils.VerifyPermutation(indices, nb.NC()); err != nil {
		return fmt.Errorf("cell numbering: %w", err)
	}
	if err := nb.Verify(); err != nil {
		return err
	}
	return nb.verifyIncidence(element.MustReferenceCell(m.dim))
}

var sideNames = [2]string{"low", "high"}

// verifyIncidence checks that all cells sharing an edge or face agree on its
// corner nodes, and that no face lies on the same side of two cells. The
// entity indices must already be known to be in range.
func (nb *Numbering) verifyIncidence(rc *element.ReferenceCell) error {
	edgeEnds := make([][2]int, nb.NE())
	for i := range edgeEnds {
		edgeEnds[i] = [2]int{-1, -1}
	}
	faceNodes := make([][]int, nb.NF())
	faceSides := make([][2]int, nb.NF())

	for ci, nodes := range nb.CellNodes {
		if len(nodes) != rc.Properties.NVp || len(nb.CellEdges[ci]) != len(rc.Edges) ||
			len(nb.CellFaces[ci]) != len(rc.Faces) {
			return fmt.Errorf("cell %d connectivity does not describe a %s", ci, rc.Properties.Name)
		}
		for k, e := range rc.Edges {
			id := nb.CellEdges[ci][k]
			ends := [2]int{nodes[e.Corners[0]], nodes[e.Corners[1]]}
			switch {
			case edgeEnds[id][0] < 0:
				edgeEnds[id] = ends
			case edgeEnds[id] != ends:
				return fmt.Errorf("cell %d sees edge %d between nodes %v, another cell between %v",
					ci, id, ends, edgeEnds[id])
			}
		}
		for k, f := range rc.Faces {
			id := nb.CellFaces[ci][k]
			if faceSides[id][f.Side]++; faceSides[id][f.Side] > 1 {
				return fmt.Errorf("face %d lies on the %s side of more than one cell", id, sideNames[f.Side])
			}
			corners := make([]int, len(f.Corners))
			for j, c := range f.Corners {
				corners[j] = nodes[c]
			}
			switch {
			case faceNodes[id] == nil:
				faceNodes[id] = corners
			case !slices.Equal(faceNodes[id], corners):
				return fmt.Errorf("cell %d sees face %d with nodes %v, another cell with %v",
					ci, id, corners, faceNodes[id])
			}
		}
	}
	return nil
}
