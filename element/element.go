package element

import "fmt"

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D1 Dimensionality = iota + 1 // 1D elements (line segments)
	D2                           // 2D elements (rectangles)
	D3                           // 3D elements (hexahedra)
)

// GeometryType identifies the shape of an element
type GeometryType uint8

const (
	Line      GeometryType = iota // Line segment
	Rectangle                     // Rectangle/Quadrilateral
	Hex                           // Hexahedron
)

func (g GeometryType) String() string {
	switch g {
	case Line:
		return "Line"
	case Rectangle:
		return "Rectangle"
	case Hex:
		return "Hex"
	}
	return fmt.Sprintf("GeometryType(%d)", uint8(g))
}

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string         // Full descriptive name (e.g., "Logically rectangular hexahedron")
	ShortName  string         // Abbreviated name (e.g., "Hex")
	Type       GeometryType   // Element shape
	NVp        int            // Number of vertices (corners)
	NEdges     int            // Number of edges in each element
	NFaces     int            // Number of faces in each element
	Dimensions Dimensionality // Spatial dimension (1D, 2D, or 3D)
}

// TypeForDim returns the hypercube element type used for dimension dim.
func TypeForDim(dim int) (GeometryType, error) {
	switch dim {
	case 1:
		return Line, nil
	case 2:
		return Rectangle, nil
	case 3:
		return Hex, nil
	}
	return 0, fmt.Errorf("unsupported dimension %d, expected 1, 2 or 3", dim)
}
