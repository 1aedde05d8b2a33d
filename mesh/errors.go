package mesh

import "errors"

// Error categories surfaced by every mesh kind. Failures are returned wrapped,
// e.g. fmt.Errorf("%w: ...", ErrValidation), so callers test with errors.Is.
var (
	// ErrValidation reports malformed construction input: dimensionality
	// mismatches, non-positive widths, negative radius or degenerate geometry.
	ErrValidation = errors.New("mesh validation error")

	// ErrImmutable reports an attempt to replace the shape of a constructed mesh.
	ErrImmutable = errors.New("mesh shape is immutable")

	// ErrRefinement reports a refinement policy that returned a negative level
	// or did not converge within the maximum tree depth.
	ErrRefinement = errors.New("mesh refinement error")

	// ErrNumberingStale reports an index-dependent query on a tree mesh whose
	// numbering was discarded by a refinement.
	ErrNumberingStale = errors.New("mesh numbering is stale")

	// ErrSerialization reports unreadable, truncated or mismatched persisted state.
	ErrSerialization = errors.New("mesh serialization error")
)
