package tree

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/tensor"
)

// Policy returns the desired level for a cell with the given physical center
// and current level. A cell is split while the policy asks for a level
// deeper than its own. Policies must be pure functions of their arguments.
type Policy func(center []float64, level int) int

// Refine splits leaves recursively until every leaf satisfies
// policy(center, level) <= level. Refinement only adds cells. On error the
// mesh is left unchanged; on success it is Refined and any numbering is
// discarded.
func (m *Mesh) Refine(policy Policy) error {
	if policy == nil {
		return fmt.Errorf("%w: nil refinement policy", mesh.ErrRefinement)
	}
	roots := make([]*cell, len(m.roots))
	for i, r := range m.roots {
		roots[i] = r.clone()
	}
	for _, r := range roots {
		if err := m.refineCell(r, policy); err != nil {
			return err
		}
	}
	m.commit(roots)
	log.Debug().Int("leaves", m.countLeaves()).Int("maxLevel", m.maxLevel).Msg("refined tree mesh")
	return nil
}

func (m *Mesh) refineCell(c *cell, policy Policy) error {
	if !c.isLeaf() {
		for _, ch := range c.children {
			if err := m.refineCell(ch, policy); err != nil {
				return err
			}
		}
		return nil
	}
	center := m.cellCenter(c)
	target := policy(center, c.level)
	switch {
	case target < 0:
		return fmt.Errorf("%w: policy returned level %d for the cell at %v, level %d",
			mesh.ErrRefinement, target, center, c.level)
	case target <= c.level:
		return nil
	case c.level >= m.maxLevel:
		return fmt.Errorf("%w: policy asks for level %d at %v but the maximum level is %d",
			mesh.ErrRefinement, target, center, m.maxLevel)
	}
	c.split(m.dim, m.cellSize(c.level))
	for _, ch := range c.children {
		if err := m.refineCell(ch, policy); err != nil {
			return err
		}
	}
	return nil
}

// commit installs a new hierarchy and discards the numbering.
func (m *Mesh) commit(roots []*cell) {
	m.roots = roots
	m.state = Refined
	m.numbering = nil
	m.geom = nil
}

func (m *Mesh) countLeaves() int {
	n := 0
	m.walkLeaves(func(*cell) { n++ })
	return n
}

// Balance splits leaves until no two leaves sharing a face differ by more
// than one level. Refine never balances on its own. If any leaf is split
// the mesh becomes Refined.
func (m *Mesh) Balance() error {
	splits := 0
	for {
		var coarse []*cell
		seen := make(map[*cell]bool)
		m.walkLeaves(func(c *cell) {
			for _, nb := range m.faceNeighbours(c) {
				if nb.level < c.level-1 && !seen[nb] {
					seen[nb] = true
					coarse = append(coarse, nb)
				}
			}
		})
		if len(coarse) == 0 {
			break
		}
		for _, c := range coarse {
			c.split(m.dim, m.cellSize(c.level))
		}
		splits += len(coarse)
	}
	if splits > 0 {
		m.commit(m.roots)
		log.Debug().Int("splits", splits).Int("leaves", m.countLeaves()).Msg("balanced tree mesh")
	}
	return nil
}

// faceNeighbours returns the leaves just across each face of c that lies
// inside the domain.
func (m *Mesh) faceNeighbours(c *cell) []*cell {
	s := m.cellSize(c.level)
	var out []*cell
	for a := 0; a < m.dim; a++ {
		limit := m.rootDims[a] * m.rootSize
		for _, q := range [2]int{c.origin[a] - 1, c.origin[a] + s} {
			if q < 0 || q >= limit {
				continue
			}
			p := c.origin
			p[a] = q
			out = append(out, m.leafAt(p))
		}
	}
	return out
}

// RestoreLeaves replaces the hierarchy with the one whose leaves are exactly
// leaves. The leaves must be aligned to their level, must not overlap and
// must cover the domain. On success the mesh is Refined.
func (m *Mesh) RestoreLeaves(leaves []LeafCell) error {
	roots := m.newRoots()
	claimed := make(map[*cell]bool, len(leaves))
	for i, lf := range leaves {
		p, err := m.checkLeaf(lf)
		if err != nil {
			return fmt.Errorf("leaf %d: %w", i, err)
		}
		var ridx [3]int
		for a := 0; a < m.dim; a++ {
			ridx[a] = p[a] / m.rootSize
		}
		c := roots[tensor.Ravel(ridx, m.rootDims)]
		for c.level < lf.Level {
			if claimed[c] {
				return fmt.Errorf("%w: leaf %d overlaps the leaf at level %d, origin %v",
					mesh.ErrValidation, i, c.level, c.origin[:m.dim])
			}
			if c.isLeaf() {
				c.split(m.dim, m.cellSize(c.level))
			}
			c = c.childContaining(m.dim, m.cellSize(c.level), p)
		}
		if claimed[c] || !c.isLeaf() {
			return fmt.Errorf("%w: leaf %d at level %d, origin %v overlaps another leaf",
				mesh.ErrValidation, i, lf.Level, lf.Origin)
		}
		claimed[c] = true
	}
	for _, r := range roots {
		var gap *cell
		r.walkLeaves(func(c *cell) {
			if gap == nil && !claimed[c] {
				gap = c
			}
		})
		if gap != nil {
			return fmt.Errorf("%w: leaves leave the cell at level %d, origin %v uncovered",
				mesh.ErrValidation, gap.level, gap.origin[:m.dim])
		}
	}
	m.commit(roots)
	return nil
}

func (m *Mesh) checkLeaf(lf LeafCell) ([3]int, error) {
	var p [3]int
	if lf.Level < 0 || lf.Level > m.maxLevel {
		return p, fmt.Errorf("%w: level %d outside [0, %d]", mesh.ErrValidation, lf.Level, m.maxLevel)
	}
	if len(lf.Origin) != m.dim {
		return p, fmt.Errorf("%w: origin %v for a %dD mesh", mesh.ErrValidation, lf.Origin, m.dim)
	}
	s := m.cellSize(lf.Level)
	for a, o := range lf.Origin {
		if o < 0 || o+s > m.rootDims[a]*m.rootSize || o%s != 0 {
			return p, fmt.Errorf("%w: origin %v is not a level %d cell", mesh.ErrValidation, lf.Origin, lf.Level)
		}
		p[a] = o
	}
	return p, nil
}
