// Package tree draws a document's layer tree annotated with the walker's
// decisions, using Graphviz.
package tree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/walker"
)

// Options configures tree rendering.
type Options struct {
	// Detailed adds kind, keyframes and color label to node labels.
	// When false, only the name and decision are shown.
	Detailed bool
}

var statusColors = map[walker.Status]string{
	walker.StatusExported:      "palegreen",
	walker.StatusFlattened:     "lightskyblue",
	walker.StatusAbsorbed:      "lightcyan",
	walker.StatusStatic:        "khaki",
	walker.StatusDescended:     "white",
	walker.StatusEmpty:         "white",
	walker.StatusHidden:        "lightgrey",
	walker.StatusReference:     "grey",
	walker.StatusMarker:        "grey",
	walker.StatusSkippedStatic: "whitesmoke",
}

// ToDOT converts the walk of doc to Graphviz DOT. Depth grows left to right
// and siblings keep stacking order; excluded nodes are drawn dashed.
func ToDOT(doc *document.Document, res walker.Result, opts Options) string {
	ids := make(map[*document.Layer]string, len(res.Decisions))
	for i, d := range res.Decisions {
		ids[d.Layer] = "n" + strconv.Itoa(i)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	fmt.Fprintf(&buf, "  root [label=%q, shape=folder];\n", rootLabel(doc))
	buf.WriteString("\n")

	for _, d := range res.Decisions {
		fmt.Fprintf(&buf, "  %s [%s];\n", ids[d.Layer], strings.Join(fmtAttrs(d, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, d := range res.Decisions {
		from := "root"
		if p := d.Layer.Parent(); p != nil {
			from = ids[p]
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", from, ids[d.Layer])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func rootLabel(doc *document.Document) string {
	name := doc.Name
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s\n%s / %s", name, doc.Clip, doc.Playback)
}

func fmtLabel(d walker.Decision, detailed bool) string {
	l := d.Layer
	label := l.Name + "\n" + d.Status.String()
	if !detailed {
		return label
	}
	parts := []string{"kind: " + l.Kind.String()}
	if frames := l.Track.Frames(); len(frames) > 0 {
		parts = append(parts, fmt.Sprintf("keys: %v", frames))
	}
	if l.ColorLabel != 0 {
		parts = append(parts, fmt.Sprintf("label: %d", l.ColorLabel))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(d walker.Decision, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(d, detailed))}
	if c, ok := statusColors[d.Status]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if !d.Status.Included() && d.Status != walker.StatusDescended {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=dimgrey")
	}
	if d.Layer.Kind == document.KindGroup {
		attrs = append(attrs, "shape=tab")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := renderDOT(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderDOT(dot, graphviz.PNG)
}

func renderDOT(dot string, format graphviz.Format) ([]byte, error) {
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
