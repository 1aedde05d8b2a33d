package tensor

// Counts holds the structured-grid combinatorics for a tensor product of
// per-axis cell counts.
//
// Faces of orientation a have vnN cells along a and vnC along the other
// axes; edges of orientation a have vnC along a and vnN elsewhere. In 3D
// the x-faces therefore number vnN[0]*vnC[1]*vnC[2].
type Counts struct {
	VnC []int // cells per axis
	VnN []int // nodes per axis
	VnF []int // faces per orientation
	VnE []int // edges per orientation

	NC, NN, NF, NE int

	FaceDims [][]int // [orientation] per-axis extent of that face block
	EdgeDims [][]int // [orientation] per-axis extent of that edge block
}

// CountEntities computes the counts for cells vnC. An axis marked periodic
// identifies its first and last node, so it carries vnC[a] nodes instead
// of vnC[a]+1. periodic may be nil.
func CountEntities(vnC []int, periodic []bool) Counts {
	dim := len(vnC)
	c := Counts{
		VnC:      append([]int(nil), vnC...),
		VnN:      make([]int, dim),
		VnF:      make([]int, dim),
		VnE:      make([]int, dim),
		FaceDims: make([][]int, dim),
		EdgeDims: make([][]int, dim),
	}
	c.NC, c.NN = 1, 1
	for a := 0; a < dim; a++ {
		c.VnN[a] = vnC[a] + 1
		if a < len(periodic) && periodic[a] {
			c.VnN[a] = vnC[a]
		}
		c.NC *= c.VnC[a]
		c.NN *= c.VnN[a]
	}
	for a := 0; a < dim; a++ {
		fd := make([]int, dim)
		ed := make([]int, dim)
		nf, ne := 1, 1
		for b := 0; b < dim; b++ {
			if b == a {
				fd[b], ed[b] = c.VnN[b], c.VnC[b]
			} else {
				fd[b], ed[b] = c.VnC[b], c.VnN[b]
			}
			nf *= fd[b]
			ne *= ed[b]
		}
		c.FaceDims[a], c.EdgeDims[a] = fd, ed
		c.VnF[a], c.VnE[a] = nf, ne
		c.NF += nf
		c.NE += ne
	}
	return c
}

// Clone returns a deep copy of c.
func (c Counts) Clone() Counts {
	o := c
	o.VnC = append([]int(nil), c.VnC...)
	o.VnN = append([]int(nil), c.VnN...)
	o.VnF = append([]int(nil), c.VnF...)
	o.VnE = append([]int(nil), c.VnE...)
	o.FaceDims = make([][]int, len(c.FaceDims))
	o.EdgeDims = make([][]int, len(c.EdgeDims))
	for a := range c.FaceDims {
		o.FaceDims[a] = append([]int(nil), c.FaceDims[a]...)
		o.EdgeDims[a] = append([]int(nil), c.EdgeDims[a]...)
	}
	return o
}

// FaceOffset returns the global index of the first face of orientation a.
func (c Counts) FaceOffset(a int) int {
	off := 0
	for b := 0; b < a; b++ {
		off += c.VnF[b]
	}
	return off
}

// EdgeOffset returns the global index of the first edge of orientation a.
func (c Counts) EdgeOffset(a int) int {
	off := 0
	for b := 0; b < a; b++ {
		off += c.VnE[b]
	}
	return off
}

// Unravel converts a Fortran-order (x fastest) linear index into per-axis
// indices for the given extents.
func Unravel(i int, dims []int) [3]int {
	var idx [3]int
	for a, n := range dims {
		idx[a] = i % n
		i /= n
	}
	return idx
}

// Ravel is the inverse of Unravel.
func Ravel(idx [3]int, dims []int) int {
	i := 0
	for a := len(dims) - 1; a >= 0; a-- {
		i = i*dims[a] + idx[a]
	}
	return i
}
