package mesh

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/meshgrid/element"
)

// Summary returns a human readable summary of a mesh's counts and measures
func Summary(m Mesh) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== %s mesh summary ===\n", m.Kind()))
	sb.WriteString(fmt.Sprintf("  Dimensions: %d\n", m.Dim()))
	sb.WriteString(fmt.Sprintf("  Origin x0: %v\n", m.X0()))
	if rc, err := element.NewReferenceCell(m.Dim()); err == nil {
		p := rc.Properties
		sb.WriteString(fmt.Sprintf("  Cell type: %s (%s), %d corners\n", p.Name, p.ShortName, p.NVp))
	}

	g, err := m.Geometry()
	if err != nil {
		sb.WriteString(fmt.Sprintf("  Geometry unavailable: %v\n", err))
		return sb.String()
	}

	sb.WriteString("\n--- Counts ---\n")
	sb.WriteString(fmt.Sprintf("  Cells (nC): %d\n", g.NC))
	sb.WriteString(fmt.Sprintf("  Faces (nF): %d\n", g.NF))
	sb.WriteString(fmt.Sprintf("  Edges (nE): %d\n", g.NE))
	sb.WriteString(fmt.Sprintf("  Nodes (nN): %d\n", g.NN))
	if g.VnC != nil {
		sb.WriteString(fmt.Sprintf("  vnC: %v  vnN: %v\n", g.VnC, g.VnN))
		sb.WriteString(fmt.Sprintf("  vnF: %v  vnE: %v\n", g.VnF, g.VnE))
	}

	sb.WriteString("\n--- Measures ---\n")
	writeRange(&sb, "Cell volume", g.Vol)
	writeRange(&sb, "Face area", g.Area)
	writeRange(&sb, "Edge length", g.Edge)
	sb.WriteString(fmt.Sprintf("  Total volume: %.6e\n", floats.Sum(g.Vol)))

	sb.WriteString("\n===========================\n")
	return sb.String()
}

func writeRange(sb *strings.Builder, name string, v []float64) {
	if len(v) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("  %s range: [%.4e, %.4e]\n", name, floats.Min(v), floats.Max(v)))
}
