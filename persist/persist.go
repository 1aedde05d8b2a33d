package persist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/notargets/meshgrid/mesh"
)

// Encode writes m to w. Tree meshes must be numbered.
func Encode(w io.Writer, m mesh.Mesh) error {
	doc, err := snapshot(m)
	if err != nil {
		return err
	}
	var header [headerSize]byte
	copy(header[:], Magic)
	binary.LittleEndian.PutUint16(header[len(Magic):], Version)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create compressor: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(doc); err != nil {
		zw.Close()
		return fmt.Errorf("encode %s mesh: %w", doc.Kind, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush compressor: %w", err)
	}
	return nil
}

// Decode reads a mesh written by Encode. Any malformed, truncated or
// mismatched input fails with mesh.ErrSerialization.
func Decode(r io.Reader) (mesh.Mesh, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", mesh.ErrSerialization, err)
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", mesh.ErrSerialization, header[:len(Magic)])
	}
	if v := binary.LittleEndian.Uint16(header[len(Magic):]); v != Version {
		return nil, fmt.Errorf("%w: unsupported format version %d, expected %d", mesh.ErrSerialization, v, Version)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open decompressor: %w", mesh.ErrSerialization, err)
	}
	defer zr.Close()

	var doc document
	if err := msgpack.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %w", mesh.ErrSerialization, err)
	}
	return restore(&doc)
}

// SaveFile writes m to path. A partially written file is removed.
func SaveFile(path string, m mesh.Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = Encode(bw, m); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("kind", m.Kind().String()).Msg("saved mesh")
	return nil
}

// LoadFile reads a mesh saved by SaveFile.
func LoadFile(path string) (mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", mesh.ErrSerialization, path, err)
	}
	defer f.Close()

	m, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("kind", m.Kind().String()).Msg("loaded mesh")
	return m, nil
}

// Handle owns the storage written by Save. Close releases it.
type Handle struct {
	path   string
	closed bool
}

// Path is the file backing the handle.
func (h *Handle) Path() string { return h.path }

// Close removes the saved state. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release %s: %w", h.path, err)
	}
	return nil
}

// Save writes m to new temporary storage and returns the handle that owns
// it. The caller must Close the handle. A failed save leaves nothing behind.
func Save(m mesh.Mesh) (*Handle, error) {
	f, err := os.CreateTemp("", "meshgrid-*.mgrd")
	if err != nil {
		return nil, fmt.Errorf("create temporary storage: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("create temporary storage: %w", err)
	}
	if err := SaveFile(path, m); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &Handle{path: path}, nil
}

// Load rebuilds the mesh held by h.
func Load(h *Handle) (mesh.Mesh, error) {
	if h == nil || h.closed {
		return nil, fmt.Errorf("%w: storage handle is closed", mesh.ErrSerialization)
	}
	return LoadFile(h.path)
}

// Copy returns an independent mesh equivalent to m, without going through
// storage. Tree meshes must be numbered.
func Copy(m mesh.Mesh) (mesh.Mesh, error) {
	doc, err := snapshot(m)
	if err != nil {
		return nil, err
	}
	return restore(doc)
}
