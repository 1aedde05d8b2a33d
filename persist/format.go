// Package persist saves, loads and copies meshes of every kind.
//
// A saved mesh is a 6 byte header, the magic "MGRD" followed by the format
// version as a little-endian uint16, and then a zstd compressed msgpack
// document. The document holds the mesh kind, the origin and the minimal
// state needed to rebuild the mesh: widths for tensor and cylindrical meshes,
// node coordinate arrays for curvilinear meshes, and the base widths plus the
// realized leaf set for tree meshes. Refinement policies are never saved.
package persist

import (
	"fmt"

	"github.com/notargets/meshgrid/curvilinear"
	"github.com/notargets/meshgrid/cylindrical"
	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/tensor"
	"github.com/notargets/meshgrid/tree"
)

const (
	Magic      = "MGRD"
	Version    = uint16(1)
	FormatName = "meshgrid"

	headerSize = len(Magic) + 2
)

// document is the msgpack body of a saved mesh
type document struct {
	Format    string          `msgpack:"format"`
	Version   uint16          `msgpack:"version"`
	Kind      string          `msgpack:"kind"`
	X0        []float64       `msgpack:"x0"`
	H         [][]float64     `msgpack:"h,omitempty"`
	NodeShape []int           `msgpack:"node_shape,omitempty"`
	Nodes     [][]float64     `msgpack:"nodes,omitempty"`
	Leaves    []tree.LeafCell `msgpack:"leaves,omitempty"`
}

// snapshot captures the state of m. The document shares no storage with m.
func snapshot(m mesh.Mesh) (*document, error) {
	doc := &document{
		Format:  FormatName,
		Version: Version,
		Kind:    m.Kind().String(),
		X0:      m.X0(),
	}
	switch v := m.(type) {
	case *tensor.Mesh:
		doc.H = v.H()
	case *cylindrical.Mesh:
		doc.H = v.H()
	case *tree.Mesh:
		if v.State() != tree.Numbered {
			return nil, fmt.Errorf("%w: cannot save a tree mesh that is %s", mesh.ErrNumberingStale, v.State())
		}
		doc.H = v.H()
		doc.Leaves = v.Leaves()
	case *curvilinear.Mesh:
		doc.NodeShape = v.NodeShape()
		doc.Nodes = v.NodeCoordinates()
	default:
		return nil, fmt.Errorf("%w: unsupported mesh type %T", mesh.ErrSerialization, m)
	}
	return doc, nil
}

// restore rebuilds a mesh from a document. Tree meshes come back numbered.
func restore(doc *document) (mesh.Mesh, error) {
	if doc.Format != FormatName || doc.Version != Version {
		return nil, fmt.Errorf("%w: document format %q version %d, expected %q version %d",
			mesh.ErrSerialization, doc.Format, doc.Version, FormatName, Version)
	}
	kind, err := mesh.KindFromName(doc.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mesh.ErrSerialization, err)
	}

	var m mesh.Mesh
	switch kind {
	case mesh.Tensor:
		m, err = tensor.NewMesh(doc.H, grid.At(doc.X0...))
	case mesh.Cylindrical:
		m, err = cylindrical.NewMesh(doc.H, grid.At(doc.X0...))
	case mesh.Tree:
		m, err = restoreTree(doc)
	case mesh.Curvilinear:
		m, err = curvilinear.NewMesh(doc.NodeShape, doc.Nodes)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: restoring %s mesh: %w", mesh.ErrSerialization, kind, err)
	}

	// The stored origin must agree with the rebuilt mesh
	x0 := m.X0()
	if len(x0) != len(doc.X0) {
		return nil, fmt.Errorf("%w: stored origin %v does not match %dD mesh", mesh.ErrSerialization, doc.X0, len(x0))
	}
	for a := range x0 {
		if x0[a] != doc.X0[a] {
			return nil, fmt.Errorf("%w: stored origin %v does not match mesh origin %v",
				mesh.ErrSerialization, doc.X0, x0)
		}
	}
	return m, nil
}

func restoreTree(doc *document) (*tree.Mesh, error) {
	if len(doc.Leaves) == 0 {
		return nil, fmt.Errorf("%w: tree mesh has no leaves", mesh.ErrValidation)
	}
	t, err := tree.NewMesh(doc.H, grid.At(doc.X0...))
	if err != nil {
		return nil, err
	}
	if err := t.RestoreLeaves(doc.Leaves); err != nil {
		return nil, err
	}
	if err := t.Number(); err != nil {
		return nil, err
	}
	if err := t.Verify(); err != nil {
		return nil, err
	}
	return t, nil
}
