package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Geometry holds the counts and measures derived from a mesh's structure.
//
// Entity ordering is fixed by the owning mesh kind: structured kinds store
// faces and edges in orientation blocks (x, then y, then z), each block in
// Fortran order; tree meshes store them in numbering order.
type Geometry struct {
	// Total counts of cells, faces, edges and nodes
	NC, NF, NE, NN int

	// Per-axis counts, nil for unstructured kinds.
	//   VnC[a], VnN[a]: cells / nodes along axis a
	//   VnF[a], VnE[a]: number of faces / edges of orientation a
	VnC, VnF, VnE, VnN []int

	Vol  []float64 // Length NC: cell length, area or volume
	Area []float64 // Length NF
	Edge []float64 // Length NE

	Normals     *mat.Dense // [NF × Dim] unit face normals
	Tangents    *mat.Dense // [NE × Dim] unit edge tangents
	CellCenters *mat.Dense // [NC × Dim] in the mesh coordinate system
	Nodes       *mat.Dense // [NN × Dim] in the mesh coordinate system
}

// NewGeometry allocates arrays for the given counts and dimension.
func NewGeometry(dim, nC, nF, nE, nN int) *Geometry {
	return &Geometry{
		NC:          nC,
		NF:          nF,
		NE:          nE,
		NN:          nN,
		Vol:         make([]float64, nC),
		Area:        make([]float64, nF),
		Edge:        make([]float64, nE),
		Normals:     mat.NewDense(nF, dim, nil),
		Tangents:    mat.NewDense(nE, dim, nil),
		CellCenters: mat.NewDense(nC, dim, nil),
		Nodes:       mat.NewDense(nN, dim, nil),
	}
}

// Clone returns a deep copy that shares no storage with g.
func (g *Geometry) Clone() *Geometry {
	c := &Geometry{
		NC:   g.NC,
		NF:   g.NF,
		NE:   g.NE,
		NN:   g.NN,
		VnC:  cloneInts(g.VnC),
		VnF:  cloneInts(g.VnF),
		VnE:  cloneInts(g.VnE),
		VnN:  cloneInts(g.VnN),
		Vol:  append([]float64(nil), g.Vol...),
		Area: append([]float64(nil), g.Area...),
		Edge: append([]float64(nil), g.Edge...),
	}
	c.Normals = mat.DenseCopyOf(g.Normals)
	c.Tangents = mat.DenseCopyOf(g.Tangents)
	c.CellCenters = mat.DenseCopyOf(g.CellCenters)
	c.Nodes = mat.DenseCopyOf(g.Nodes)
	return c
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s...)
}

// Validate checks the invariants every mesh kind guarantees: array lengths
// agree with the counts, measures are non-negative, cell volumes are strictly
// positive and normals/tangents have unit length.
func (g *Geometry) Validate(dim int) error {
	if len(g.Vol) != g.NC || len(g.Area) != g.NF || len(g.Edge) != g.NE {
		return fmt.Errorf("%w: measure lengths vol=%d area=%d edge=%d do not match counts nC=%d nF=%d nE=%d",
			ErrValidation, len(g.Vol), len(g.Area), len(g.Edge), g.NC, g.NF, g.NE)
	}
	if err := checkRows("normals", g.Normals, g.NF, dim); err != nil {
		return err
	}
	if err := checkRows("tangents", g.Tangents, g.NE, dim); err != nil {
		return err
	}
	if err := checkRows("cell centers", g.CellCenters, g.NC, dim); err != nil {
		return err
	}
	if err := checkRows("nodes", g.Nodes, g.NN, dim); err != nil {
		return err
	}
	for i, v := range g.Vol {
		if !(v > 0) {
			return fmt.Errorf("%w: cell %d has non-positive volume %g", ErrValidation, i, v)
		}
	}
	for i, v := range g.Area {
		if !(v >= 0) {
			return fmt.Errorf("%w: face %d has negative area %g", ErrValidation, i, v)
		}
	}
	for i, v := range g.Edge {
		if !(v >= 0) {
			return fmt.Errorf("%w: edge %d has negative length %g", ErrValidation, i, v)
		}
	}
	if err := checkUnitRows("normal", g.Normals); err != nil {
		return err
	}
	return checkUnitRows("tangent", g.Tangents)
}

func checkRows(name string, m *mat.Dense, rows, cols int) error {
	if m == nil {
		return fmt.Errorf("%w: %s matrix is missing", ErrValidation, name)
	}
	r, c := m.Dims()
	if r != rows || c != cols {
		return fmt.Errorf("%w: %s matrix is %d×%d, expected %d×%d", ErrValidation, name, r, c, rows, cols)
	}
	return nil
}

func checkUnitRows(name string, m *mat.Dense) error {
	const tol = 1e-12
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		n := mat.Norm(m.RowView(i), 2)
		if math.Abs(n-1) > tol {
			return fmt.Errorf("%w: %s %d has length %g", ErrValidation, name, i, n)
		}
	}
	return nil
}
