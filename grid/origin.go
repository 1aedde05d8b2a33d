package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/meshgrid/mesh"
)

// Origin selects a mesh origin either numerically or with a per-axis
// alignment token. The zero Origin places every axis at 0.
//
// Token characters, one per axis:
//
//	'0'  the axis starts at 0
//	'C'  the axis is centered on 0 (starts at -extent/2)
//	'N'  the axis ends at 0 (starts at -extent)
type Origin struct {
	Values []float64
	Token  string
}

// At is a numeric origin.
func At(x0 ...float64) Origin {
	return Origin{Values: append([]float64(nil), x0...)}
}

// Aligned is a token origin, e.g. Aligned("00C").
func Aligned(token string) Origin {
	return Origin{Token: token}
}

// Resolve computes the numeric origin for the given per-axis widths.
func (o Origin) Resolve(h [][]float64) ([]float64, error) {
	dim := len(h)
	switch {
	case o.Values != nil && o.Token != "":
		return nil, fmt.Errorf("%w: origin cannot be both numeric and a token", mesh.ErrValidation)
	case o.Values != nil:
		if len(o.Values) != dim {
			return nil, fmt.Errorf("%w: origin %v has %d entries, mesh has %d axes",
				mesh.ErrValidation, o.Values, len(o.Values), dim)
		}
		return append([]float64(nil), o.Values...), nil
	case o.Token == "":
		return make([]float64, dim), nil
	}

	if len(o.Token) != dim {
		return nil, fmt.Errorf("%w: origin token %q has %d characters, mesh has %d axes",
			mesh.ErrValidation, o.Token, len(o.Token), dim)
	}
	x0 := make([]float64, dim)
	for a, c := range []byte(o.Token) {
		switch c {
		case '0':
			x0[a] = 0
		case 'C', 'c':
			x0[a] = -floats.Sum(h[a]) / 2
		case 'N', 'n':
			x0[a] = -floats.Sum(h[a])
		default:
			return nil, fmt.Errorf("%w: origin token %q has unknown alignment %q on axis %d",
				mesh.ErrValidation, o.Token, c, a)
		}
	}
	return x0, nil
}

func (o Origin) String() string {
	if o.Token != "" {
		return o.Token
	}
	if o.Values == nil {
		return "0"
	}
	return fmt.Sprint(o.Values)
}
