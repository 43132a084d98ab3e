package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autoflex/pkg/structure"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds roles, padding and alignment to the labels.
	// When false, labels show the name and layout or sizing only.
	Detailed bool
}

// ToDOT converts a structure tree to Graphviz DOT.
// The result can be rendered with [RenderSVG].
func ToDOT(st *structure.Structure, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if st != nil {
		fmt.Fprintf(&buf, "  %q [%s];\n", st.RootID, strings.Join(containerAttrs(st, nil, opts), ", "))
		writeChildren(&buf, st, opts)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeChildren(buf *bytes.Buffer, st *structure.Structure, opts Options) {
	for i := range st.Children {
		n := &st.Children[i]
		var attrs []string
		if n.Structure != nil {
			attrs = containerAttrs(n.Structure, n, opts)
		} else {
			attrs = leafAttrs(*n, opts)
		}
		fmt.Fprintf(buf, "  %q [%s];\n", n.ElementID, strings.Join(attrs, ", "))
		fmt.Fprintf(buf, "  %q -> %q;\n", st.RootID, n.ElementID)
		if n.Structure != nil {
			writeChildren(buf, n.Structure, opts)
		}
	}
}

func containerAttrs(st *structure.Structure, self *structure.Node, opts Options) []string {
	lines := []string{name(st.Name, st.RootID), layoutLine(st)}
	if opts.Detailed {
		p := st.Padding
		lines = append(lines,
			fmt.Sprintf("padding: %g %g %g %g", p.Top, p.Right, p.Bottom, p.Left),
			fmt.Sprintf("align: %s / %s", st.Alignment.Horizontal, st.Alignment.Vertical))
	}
	if self != nil && self.Sizing.Horizontal != "" {
		lines = append(lines, sizingLine(*self))
	}

	attrs := []string{fmt.Sprintf("label=%q", strings.Join(lines, "\n"))}
	switch {
	case self != nil && self.Synthetic:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightblue")
	case !st.LayoutType.Flow():
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

func leafAttrs(n structure.Node, opts Options) []string {
	lines := []string{name(n.Name, n.ElementID)}
	if n.Sizing.Horizontal != "" {
		lines = append(lines, sizingLine(n))
	}
	if opts.Detailed {
		lines = append(lines, fmt.Sprintf("%s, %s", n.Type, n.Role))
	}
	attrs := []string{fmt.Sprintf("label=%q", strings.Join(lines, "\n"))}
	if n.Role == structure.RoleDecorative {
		attrs = append(attrs, "fontcolor=grey40")
	}
	return attrs
}

func layoutLine(st *structure.Structure) string {
	switch st.LayoutType {
	case structure.LayoutHorizontal:
		return fmt.Sprintf("horizontal, gap %g", st.Spacing.Horizontal)
	case structure.LayoutVertical:
		return fmt.Sprintf("vertical, gap %g", st.Spacing.Vertical)
	case structure.LayoutGrid:
		return fmt.Sprintf("grid %dx%d, gap %g/%g", st.Rows, st.Columns, st.Spacing.Horizontal, st.Spacing.Vertical)
	default:
		return string(st.LayoutType)
	}
}

func sizingLine(n structure.Node) string {
	return fmt.Sprintf("W %s · H %s", n.Sizing.Horizontal, n.Sizing.Vertical)
}

func name(n, id string) string {
	if n == "" {
		return id
	}
	return n
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one sized
// in pixels from the viewBox.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
