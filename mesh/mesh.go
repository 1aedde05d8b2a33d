// Package mesh defines the capability interface shared by every mesh kind,
// the geometric arrays they expose and the error categories they return.
package mesh

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of mesh variants.
type Kind uint8

const (
	Tensor Kind = iota
	Cylindrical
	Tree
	Curvilinear
)

var kindNames = [...]string{
	Tensor:      "tensor",
	Cylindrical: "cylindrical",
	Tree:        "tree",
	Curvilinear: "curvilinear",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name (case insensitive) back to its Kind.
func ParseKind(s string) (Kind, error) {
	return KindFromName(strings.ToLower(strings.TrimSpace(s)))
}

// KindFromName is the exact inverse of Kind.String.
func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mesh kind %q", ErrValidation, name)
}

// Mesh is the query surface common to all mesh kinds. Kind-specific state
// (widths, node arrays, the cell hierarchy) is reached by switching on the
// concrete type.
type Mesh interface {
	Kind() Kind

	// Dim is the spatial dimension, fixed for the lifetime of the mesh.
	Dim() int

	// X0 returns a copy of the mesh origin.
	X0() []float64

	// Geometry returns the counts and measures derived from the mesh
	// structure. The returned value is owned by the mesh and must be treated
	// as read-only.
	Geometry() (*Geometry, error)

	// SetN requests replacement of the per-axis cell counts. The shape of a
	// constructed mesh is immutable, so this always fails with ErrImmutable.
	SetN(n []int) error
}
