package mesh

import "fmt"

// RejectShapeChange is the validation boundary for requests to replace the
// per-axis cell counts of a constructed mesh. It always returns ErrImmutable,
// naming the most specific reason the request is invalid.
func RejectShapeChange(current, n []int) error {
	switch {
	case len(n) == 0:
		return fmt.Errorf("%w: cannot replace cell counts %v with an empty shape", ErrImmutable, current)
	case len(n) != len(current):
		return fmt.Errorf("%w: cannot change dimensionality from %d to %d", ErrImmutable, len(current), len(n))
	}
	for i := range n {
		if n[i] != current[i] {
			return fmt.Errorf("%w: cannot replace cell counts %v with %v once geometry is derived",
				ErrImmutable, current, n)
		}
	}
	return fmt.Errorf("%w: cell counts %v are fixed at construction", ErrImmutable, current)
}
