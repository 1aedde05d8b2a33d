package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/notargets/meshgrid/curvilinear"
	"github.com/notargets/meshgrid/cylindrical"
	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/mesh/meshtest"
	"github.com/notargets/meshgrid/tensor"
	"github.com/notargets/meshgrid/tree"
)

func refinedTree(t *testing.T) *tree.Mesh {
	t.Helper()
	m, err := tree.NewUniform([]int{8, 8}, grid.Origin{})
	require.NoError(t, err)
	require.NoError(t, m.Refine(func(x []float64, level int) int {
		if math.Hypot(x[0]-0.25, x[1]-0.25) < 0.25 {
			return 3
		}
		return 2
	}))
	require.NoError(t, m.Number())
	return m
}

func testMeshes(t *testing.T) map[string]mesh.Mesh {
	t.Helper()
	tm, err := tensor.NewUniform([]int{4, 5, 9}, grid.At(-0.5, -0.25, 0))
	require.NoError(t, err)
	tm2, err := tensor.NewMesh([][]float64{{0.1, 0.3, 0.7}, {1.0 / 3, 2.0 / 3}}, grid.Aligned("CN"))
	require.NoError(t, err)
	cm, err := cylindrical.NewUniform([]int{4, 1, 9}, grid.Aligned("00C"))
	require.NoError(t, err)
	cm2, err := cylindrical.NewMesh([][]float64{{0.5, 0.25}, {0.3, 0.4}}, grid.At(1, 0.1))
	require.NoError(t, err)
	cv, err := curvilinear.NewFromIncrements([][]float64{{1, 1, 1}, {1, 2}, {1, 4}}, nil)
	require.NoError(t, err)
	oct, err := tree.NewUniform([]int{4, 4, 4}, grid.Aligned("CCC"))
	require.NoError(t, err)
	require.NoError(t, oct.Refine(func(x []float64, level int) int {
		if x[0] < 0 && x[1] < 0 && x[2] < 0 {
			return 2
		}
		return 1
	}))
	require.NoError(t, oct.Number())

	return map[string]mesh.Mesh{
		"tensor 3D":      tm,
		"tensor 2D":      tm2,
		"cylindrical":    cm,
		"cylindrical 2D": cm2,
		"curvilinear":    cv,
		"tree 2D":        refinedTree(t),
		"tree 3D":        oct,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, m := range testMeshes(t) {
		t.Run(name, func(t *testing.T) {
			h, err := Save(m)
			require.NoError(t, err)
			defer h.Close()

			info, err := os.Stat(h.Path())
			require.NoError(t, err)
			t.Logf("%s saved to %d bytes", name, info.Size())

			loaded, err := Load(h)
			require.NoError(t, err)
			meshtest.AssertEquivalent(t, m, loaded)
			meshtest.AssertIndependent(t, m, loaded)
		})
	}
}

func TestTreeRoundTripKeepsLeaves(t *testing.T) {
	m := refinedTree(t)
	h, err := Save(m)
	require.NoError(t, err)
	defer h.Close()

	loaded, err := Load(h)
	require.NoError(t, err)
	lt, ok := loaded.(*tree.Mesh)
	require.True(t, ok)
	assert.Equal(t, tree.Numbered, lt.State())
	assert.Equal(t, m.Leaves(), lt.Leaves())

	g, err := lt.Geometry()
	require.NoError(t, err)
	assert.Equal(t, 28, g.NC)

	want, err := m.Numbering()
	require.NoError(t, err)
	got, err := lt.Numbering()
	require.NoError(t, err)
	assert.Equal(t, want.CellFaces, got.CellFaces)
	assert.Equal(t, want.CellEdges, got.CellEdges)
	assert.Equal(t, want.CellNodes, got.CellNodes)
	assert.Equal(t, want.HangingFaces, got.HangingFaces)
	assert.Equal(t, want.HangingEdges, got.HangingEdges)
	assert.Equal(t, want.HangingNodes, got.HangingNodes)
}

func TestCopy(t *testing.T) {
	for name, m := range testMeshes(t) {
		t.Run(name, func(t *testing.T) {
			c, err := Copy(m)
			require.NoError(t, err)
			meshtest.AssertEquivalent(t, m, c)
			meshtest.AssertIndependent(t, m, c)

			// Writing into the copy leaves the original alone
			gm, err := m.Geometry()
			require.NoError(t, err)
			gc, err := c.Geometry()
			require.NoError(t, err)
			orig := gm.Vol[0]
			gc.Vol[0] = -1
			assert.Equal(t, orig, gm.Vol[0])
		})
	}
}

func TestCopyOfRefinedCopyDiverges(t *testing.T) {
	m := refinedTree(t)
	c, err := Copy(m)
	require.NoError(t, err)
	ct := c.(*tree.Mesh)
	require.NoError(t, ct.Refine(func([]float64, int) int { return 3 }))
	require.NoError(t, ct.Number())

	g, err := m.Geometry()
	require.NoError(t, err)
	assert.Equal(t, 28, g.NC)
	gc, err := ct.Geometry()
	require.NoError(t, err)
	assert.Equal(t, 64, gc.NC)
}

func TestSaveRequiresNumberedTree(t *testing.T) {
	m, err := tree.NewUniform([]int{4, 4}, grid.Origin{})
	require.NoError(t, err)

	_, err = Save(m)
	assert.ErrorIs(t, err, mesh.ErrNumberingStale)
	_, err = Copy(m)
	assert.ErrorIs(t, err, mesh.ErrNumberingStale)

	require.NoError(t, m.Refine(func([]float64, int) int { return 1 }))
	path := filepath.Join(t.TempDir(), "tree.mgrd")
	err = SaveFile(path, m)
	assert.ErrorIs(t, err, mesh.ErrNumberingStale)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed save left %s behind", path)
}

func TestHandleClose(t *testing.T) {
	m, err := tensor.NewUniform([]int{2, 2}, grid.Origin{})
	require.NoError(t, err)
	h, err := Save(m)
	require.NoError(t, err)

	path := h.Path()
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	require.NoError(t, h.Close())

	_, err = Load(h)
	assert.ErrorIs(t, err, mesh.ErrSerialization)
}

func TestSaveFileLoadFile(t *testing.T) {
	m, err := curvilinear.NewFromIncrements([][]float64{{1, 2}, {0.5}}, []float64{3, -1})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "mesh.mgrd")
	require.NoError(t, SaveFile(path, m))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	meshtest.AssertEquivalent(t, m, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.mgrd"))
	assert.ErrorIs(t, err, mesh.ErrSerialization)
}

// encodeDocument writes a hand-built document with a valid header.
func encodeDocument(t *testing.T, doc *document) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(Magic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Version))
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, msgpack.NewEncoder(zw).Encode(doc))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeRejectsBadInput(t *testing.T) {
	m, err := tensor.NewUniform([]int{3, 2}, grid.Origin{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))
	good := buf.Bytes()

	// Sanity check the untouched stream
	_, err = Decode(bytes.NewReader(good))
	require.NoError(t, err)

	badMagic := append([]byte(nil), good...)
	copy(badMagic, "XXXX")
	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(badVersion[len(Magic):], Version+1)
	garbage := append(append([]byte(nil), good[:headerSize]...), []byte("not a zstd stream")...)

	cases := map[string][]byte{
		"empty":          nil,
		"short header":   good[:3],
		"bad magic":      badMagic,
		"bad version":    badVersion,
		"header only":    good[:headerSize],
		"truncated body": good[:headerSize+(len(good)-headerSize)/2],
		"garbage body":   garbage,

		"unknown kind": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "hexagonal", X0: []float64{0},
		}),
		"wrong format name": encodeDocument(t, &document{
			Format: "other", Version: Version, Kind: "tensor", X0: []float64{0}, H: [][]float64{{1}},
		}),
		"invalid widths": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "tensor", X0: []float64{0}, H: [][]float64{{-1}},
		}),
		"origin mismatch": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "curvilinear", X0: []float64{5},
			NodeShape: []int{2}, Nodes: [][]float64{{0, 1}},
		}),
		"node shape overflow": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "curvilinear", X0: []float64{0, 0},
			NodeShape: []int{4, 1<<62 + 1}, Nodes: [][]float64{{0, 1, 0, 1}, {0, 0, 1, 1}},
		}),
		"padded kind": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: " tensor", X0: []float64{0}, H: [][]float64{{1}},
		}),
		"upper case kind": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "TENSOR", X0: []float64{0}, H: [][]float64{{1}},
		}),
		"tree without leaves": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "tree", X0: []float64{0, 0},
			H: [][]float64{{1, 1}, {1, 1}},
		}),
		"overlapping leaves": encodeDocument(t, &document{
			Format: FormatName, Version: Version, Kind: "tree", X0: []float64{0, 0},
			H: [][]float64{{1, 1}, {1, 1}},
			Leaves: []tree.LeafCell{
				{Level: 0, Origin: []int{0, 0}},
				{Level: 1, Origin: []int{0, 0}},
			},
		}),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, mesh.ErrSerialization)
			t.Logf("expected error: %v", err)
		})
	}
}
