package element

// ReferenceCell describes the local topology of a unit hypercube [0,1]^d.
// Structured, curvilinear and tree meshes share this layout to walk the
// corners, edges and faces of a cell in a fixed order.
//
// Corner c has offset bit a = (c>>a)&1 along axis a, so corners are ordered
// with x fastest. Faces are ordered by axis, low side before high side. Edges
// are ordered by axis; within an axis the remaining axes, taken in increasing
// order, supply the bits of the edge's position, lowest axis fastest.
type ReferenceCell struct {
	Properties ElementProperties

	Corners [][3]int    // [corner] offset in {0,1}^d, unused axes are 0
	Edges   []LocalEdge // [edge]
	Faces   []LocalFace // [face]
}

// LocalEdge is one edge of the reference cell
type LocalEdge struct {
	Axis    int    // Direction of the edge
	Offset  [3]int // Offset of the edge's low end from the cell origin
	Corners [2]int // Corner indices at the low and high end
}

// LocalFace is one face of the reference cell
type LocalFace struct {
	Axis    int    // Normal direction of the face
	Side    int    // 0 for the low side, 1 for the high side
	Offset  [3]int // Offset of the face's low corner from the cell origin
	Corners []int  // Corner indices lying on the face, increasing
}

var referenceCells [4]*ReferenceCell

func init() {
	for dim := 1; dim <= 3; dim++ {
		referenceCells[dim] = buildReferenceCell(dim)
	}
}

// NewReferenceCell returns the reference hypercube for dimension dim. The
// returned value is shared and must not be modified.
func NewReferenceCell(dim int) (*ReferenceCell, error) {
	if _, err := TypeForDim(dim); err != nil {
		return nil, err
	}
	return referenceCells[dim], nil
}

// MustReferenceCell is NewReferenceCell for dimensions already validated by the caller.
func MustReferenceCell(dim int) *ReferenceCell {
	rc, err := NewReferenceCell(dim)
	if err != nil {
		panic(err)
	}
	return rc
}

func buildReferenceCell(dim int) *ReferenceCell {
	gt, _ := TypeForDim(dim)
	rc := &ReferenceCell{
		Properties: ElementProperties{
			Type:       gt,
			ShortName:  gt.String(),
			NVp:        1 << dim,
			NEdges:     dim * (1 << (dim - 1)),
			NFaces:     2 * dim,
			Dimensions: Dimensionality(dim),
		},
	}
	switch gt {
	case Line:
		rc.Properties.Name = "Line segment"
	case Rectangle:
		rc.Properties.Name = "Logically rectangular quadrilateral"
	case Hex:
		rc.Properties.Name = "Logically rectangular hexahedron"
	}

	rc.Corners = make([][3]int, 1<<dim)
	for c := range rc.Corners {
		for a := 0; a < dim; a++ {
			rc.Corners[c][a] = (c >> a) & 1
		}
	}

	for a := 0; a < dim; a++ {
		for side := 0; side < 2; side++ {
			f := LocalFace{Axis: a, Side: side}
			f.Offset[a] = side
			for c, off := range rc.Corners {
				if off[a] == side {
					f.Corners = append(f.Corners, c)
				}
			}
			rc.Faces = append(rc.Faces, f)
		}
	}

	for a := 0; a < dim; a++ {
		for m := 0; m < 1<<(dim-1); m++ {
			e := LocalEdge{Axis: a}
			bit := 0
			for b := 0; b < dim; b++ {
				if b == a {
					continue
				}
				e.Offset[b] = (m >> bit) & 1
				bit++
			}
			e.Corners[0] = cornerIndex(e.Offset, dim)
			hi := e.Offset
			hi[a] = 1
			e.Corners[1] = cornerIndex(hi, dim)
			rc.Edges = append(rc.Edges, e)
		}
	}
	return rc
}

func cornerIndex(off [3]int, dim int) int {
	c := 0
	for a := 0; a < dim; a++ {
		c |= off[a] << a
	}
	return c
}
