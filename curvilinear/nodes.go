package curvilinear

import (
	"gonum.org/v1/gonum/floats"
)

// NodesFromWidths returns the node positions origin, origin+h[0], ... for a
// sequence of increments.
func NodesFromWidths(h []float64, origin float64) []float64 {
	nodes := make([]float64, len(h)+1)
	floats.CumSum(nodes[1:], h)
	floats.AddConst(origin, nodes)
	return nodes
}

// NDGrid expands per-axis node vectors into full coordinate arrays in
// Fortran order, returning the node shape and one array per axis.
func NDGrid(vectors ...[]float64) (shape []int, coords [][]float64) {
	shape = make([]int, len(vectors))
	total := 1
	for a, v := range vectors {
		shape[a] = len(v)
		total *= len(v)
	}
	coords = make([][]float64, len(vectors))
	for a := range coords {
		coords[a] = make([]float64, total)
	}
	for n := 0; n < total; n++ {
		rem := n
		for a, v := range vectors {
			coords[a][n] = v[rem%len(v)]
			rem /= len(v)
		}
	}
	return shape, coords
}
