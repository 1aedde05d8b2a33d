// Package config reads TOML mesh descriptions and builds the meshes they
// describe.
//
//	kind = "tree"
//	n = [8, 8]
//	origin = "00"
//	default_level = 2
//
//	[[refine]]
//	center = [0.25, 0.25]
//	radius = 0.25
//	level = 3
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/meshgrid/curvilinear"
	"github.com/notargets/meshgrid/cylindrical"
	"github.com/notargets/meshgrid/grid"
	"github.com/notargets/meshgrid/mesh"
	"github.com/notargets/meshgrid/tensor"
	"github.com/notargets/meshgrid/tree"
)

const DefaultKind = "tensor"

// RefineRule asks for at least Level inside the open ball of Radius around
// Center.
type RefineRule struct {
	Center []float64 `toml:"center"`
	Radius float64   `toml:"radius"`
	Level  int       `toml:"level"`
}

func (r RefineRule) contains(x []float64) bool {
	return floats.Distance(x, r.Center, 2) < r.Radius
}

type MeshConfig struct {
	Kind string `toml:"kind"`

	// Exactly one of N (uniform cells on the unit extent per axis) or H
	// (explicit widths). Curvilinear meshes use Increments instead.
	N []int       `toml:"n"`
	H [][]float64 `toml:"h"`

	// Either an alignment token or a numeric origin.
	Origin string    `toml:"origin"`
	X0     []float64 `toml:"x0"`

	// Tree only
	DefaultLevel int          `toml:"default_level"`
	Balance      bool         `toml:"balance"`
	Refine       []RefineRule `toml:"refine"`

	// Curvilinear only: per-axis node spacings
	Increments [][]float64 `toml:"increments"`
}

// Load reads, defaults and validates the mesh description at path. Unknown
// keys are rejected.
func Load(path string) (MeshConfig, error) {
	var cfg MeshConfig
	if err := loadToml(path, &cfg); err != nil {
		return MeshConfig{}, err
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = DefaultKind
	}
	if err := cfg.Validate(); err != nil {
		return MeshConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	meta, err := toml.Decode(string(data), out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the description for consistency. Geometric checks
// (positive widths, power-of-2 tree axes, radius limits) are left to the
// mesh constructors.
func (c MeshConfig) Validate() error {
	kind, err := mesh.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	if c.Origin != "" && c.X0 != nil {
		return fmt.Errorf("%w: origin and x0 are mutually exclusive", mesh.ErrValidation)
	}

	dim := len(c.N) + len(c.H)
	if kind == mesh.Curvilinear {
		if c.N != nil || c.H != nil {
			return fmt.Errorf("%w: curvilinear meshes take increments, not n or h", mesh.ErrValidation)
		}
		if len(c.Increments) == 0 {
			return fmt.Errorf("%w: curvilinear mesh needs increments", mesh.ErrValidation)
		}
		dim = len(c.Increments)
	} else {
		switch {
		case c.Increments != nil:
			return fmt.Errorf("%w: increments only apply to curvilinear meshes", mesh.ErrValidation)
		case c.N != nil && c.H != nil:
			return fmt.Errorf("%w: n and h are mutually exclusive", mesh.ErrValidation)
		case dim == 0:
			return fmt.Errorf("%w: %s mesh needs n or h", mesh.ErrValidation, kind)
		}
	}

	if kind != mesh.Tree {
		if c.DefaultLevel != 0 || c.Balance || len(c.Refine) > 0 {
			return fmt.Errorf("%w: default_level, balance and refine only apply to tree meshes", mesh.ErrValidation)
		}
		return nil
	}
	if c.DefaultLevel < 0 {
		return fmt.Errorf("%w: default_level %d is negative", mesh.ErrValidation, c.DefaultLevel)
	}
	for i, r := range c.Refine {
		switch {
		case len(r.Center) != dim:
			return fmt.Errorf("%w: refine[%d] center %v for a %dD mesh", mesh.ErrValidation, i, r.Center, dim)
		case !(r.Radius > 0):
			return fmt.Errorf("%w: refine[%d] radius %g is not positive", mesh.ErrValidation, i, r.Radius)
		case r.Level < 0:
			return fmt.Errorf("%w: refine[%d] level %d is negative", mesh.ErrValidation, i, r.Level)
		}
	}
	return nil
}

func (c MeshConfig) origin() grid.Origin {
	if c.X0 != nil {
		return grid.At(c.X0...)
	}
	return grid.Aligned(c.Origin)
}

// Policy returns the tree refinement policy of the description: the deepest
// level among the rules whose ball contains the cell center, and
// DefaultLevel elsewhere.
func (c MeshConfig) Policy() tree.Policy {
	rules := append([]RefineRule(nil), c.Refine...)
	def := c.DefaultLevel
	return func(center []float64, _ int) int {
		level := def
		for _, r := range rules {
			if r.Level > level && r.contains(center) {
				level = r.Level
			}
		}
		return level
	}
}

// Build constructs the described mesh. Tree meshes are refined, optionally
// balanced, and numbered.
func (c MeshConfig) Build() (mesh.Mesh, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	kind, _ := mesh.ParseKind(c.Kind)

	var (
		m   mesh.Mesh
		err error
	)
	switch kind {
	case mesh.Tensor:
		if c.N != nil {
			m, err = tensor.NewUniform(c.N, c.origin())
		} else {
			m, err = tensor.NewMesh(c.H, c.origin())
		}
	case mesh.Cylindrical:
		if c.N != nil {
			m, err = cylindrical.NewUniform(c.N, c.origin())
		} else {
			m, err = cylindrical.NewMesh(c.H, c.origin())
		}
	case mesh.Tree:
		m, err = c.buildTree()
	case mesh.Curvilinear:
		var x0 []float64
		if x0, err = c.origin().Resolve(c.Increments); err == nil {
			m, err = curvilinear.NewFromIncrements(c.Increments, x0)
		}
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("kind", kind.String()).Int("dim", m.Dim()).Msg("built mesh from config")
	return m, nil
}

func (c MeshConfig) buildTree() (*tree.Mesh, error) {
	var (
		t   *tree.Mesh
		err error
	)
	if c.N != nil {
		t, err = tree.NewUniform(c.N, c.origin())
	} else {
		t, err = tree.NewMesh(c.H, c.origin())
	}
	if err != nil {
		return nil, err
	}
	if err := t.Refine(c.Policy()); err != nil {
		return nil, err
	}
	if c.Balance {
		if err := t.Balance(); err != nil {
			return nil, err
		}
	}
	if err := t.Number(); err != nil {
		return nil, err
	}
	return t, nil
}
