package tree

// LeafCell identifies a leaf by its level and the index of its low corner on
// the finest grid.
type LeafCell struct {
	Level  int   `msgpack:"level"`
	Origin []int `msgpack:"origin"`
}

// cell is a node of the refinement hierarchy. A cell covers size finest
// cells along every axis starting at origin; it is a leaf until split.
type cell struct {
	level    int
	origin   [3]int
	children []*cell // nil for a leaf, else 2^d cells

	index int // leaf index, valid while the mesh is numbered
}

func (c *cell) isLeaf() bool { return c.children == nil }

// split creates the 2^d children of c. Child k lies in the upper half along
// axis a when bit a of k is set, so children are ordered x fastest.
func (c *cell) split(dim, size int) {
	half := size / 2
	c.children = make([]*cell, 1<<dim)
	for k := range c.children {
		ch := &cell{level: c.level + 1, origin: c.origin, index: -1}
		for a := 0; a < dim; a++ {
			if (k>>a)&1 == 1 {
				ch.origin[a] += half
			}
		}
		c.children[k] = ch
	}
}

// clone deep copies the subtree rooted at c.
func (c *cell) clone() *cell {
	o := &cell{level: c.level, origin: c.origin, index: -1}
	if c.children != nil {
		o.children = make([]*cell, len(c.children))
		for k, ch := range c.children {
			o.children[k] = ch.clone()
		}
	}
	return o
}

// walkLeaves visits the leaves below c in depth-first pre-order.
func (c *cell) walkLeaves(fn func(*cell)) {
	if c.isLeaf() {
		fn(c)
		return
	}
	for _, ch := range c.children {
		ch.walkLeaves(fn)
	}
}

// childContaining returns the child of c that holds finest-grid index p.
func (c *cell) childContaining(dim, size int, p [3]int) *cell {
	half := size / 2
	k := 0
	for a := 0; a < dim; a++ {
		if p[a]-c.origin[a] >= half {
			k |= 1 << a
		}
	}
	return c.children[k]
}
