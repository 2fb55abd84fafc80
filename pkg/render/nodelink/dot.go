package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/open-physiology/lyphgraph/pkg/colormap"
	"github.com/open-physiology/lyphgraph/pkg/model"
	"github.com/open-physiology/lyphgraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the class and id under every label.
	Detailed bool

	// Hidden draws resources whose hidden flag is set.
	Hidden bool

	// Stubs draws unresolved references as dashed placeholders.
	Stubs bool
}

// ToDOT converts a resource registry to Graphviz DOT.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(reg *model.Registry, opts Options) string {
	b := &builder{opts: opts, drawn: make(map[string]bool)}
	model.Walk(reg, b)
	return b.String()
}

type edge struct {
	from, to string
	attrs    []string
}

// builder collects vertices, edges and clusters while visiting, then
// writes them out in registry order.
type builder struct {
	model.BaseVisitor
	opts     Options
	vertices []string
	edges    []edge
	groups   []*model.Resource
	drawn    map[string]bool
}

func (b *builder) VisitNode(r *model.Resource) {
	b.vertex(r, "shape=circle", "width=0.25", "fixedsize=false")
}

func (b *builder) VisitLyph(r *model.Resource) {
	style := `style="rounded,filled"`
	if r.Bool("isTemplate") {
		style = `style="rounded,filled,dashed"`
	}
	if !b.vertex(r, "shape=box", style) {
		return
	}
	for _, layer := range r.Refs("layers") {
		b.edges = append(b.edges, edge{r.ID, layer.ID, []string{"style=dotted", "arrowhead=none"}})
	}
}

func (b *builder) VisitRegion(r *model.Resource) {
	b.vertex(r, "shape=box", `style="filled"`, "penwidth=2")
}

func (b *builder) VisitMaterial(r *model.Resource) {
	b.vertex(r, "shape=note")
}

func (b *builder) VisitLink(r *model.Resource) {
	if b.skip(r) {
		return
	}
	src, dst := r.Ref("source"), r.Ref("target")
	if src == nil || dst == nil {
		return
	}

	attrs := []string{fmt.Sprintf("label=%q", linkLabel(r))}
	if !r.Bool("directed") {
		attrs = append(attrs, "arrowhead=none")
	}
	if c := r.Color(); c != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", c))
	}
	switch r.Str("stroke") {
	case "dashed":
		attrs = append(attrs, "style=dashed")
	case "thick":
		attrs = append(attrs, "penwidth=3")
	}
	if r.Str("geometry") == "invisible" {
		attrs = append(attrs, "style=invis")
	}
	b.edges = append(b.edges, edge{src.ID, dst.ID, attrs})
}

func (b *builder) VisitGroup(r *model.Resource) {
	if !b.skip(r) {
		b.groups = append(b.groups, r)
	}
}

func (b *builder) VisitOther(r *model.Resource) {
	if r.Stub && b.opts.Stubs {
		b.drawn[r.ID] = true
		b.vertices = append(b.vertices, fmt.Sprintf("  %q [label=%q, shape=box, style=dashed, fontcolor=grey40];", r.ID, r.ID+"?"))
	}
}

func (b *builder) skip(r *model.Resource) bool {
	return r.Bool("hidden") && !b.opts.Hidden
}

func (b *builder) vertex(r *model.Resource, attrs ...string) bool {
	if b.skip(r) {
		return false
	}
	all := append([]string{fmt.Sprintf("label=%q", b.label(r))}, attrs...)
	if c := r.Color(); c != "" {
		all = append(all, fmt.Sprintf("fillcolor=%q", c))
	}
	b.drawn[r.ID] = true
	b.vertices = append(b.vertices, fmt.Sprintf("  %q [%s];", r.ID, strings.Join(all, ", ")))
	return true
}

func (b *builder) label(r *model.Resource) string {
	if r.Bool("skipLabel") {
		return ""
	}
	if !b.opts.Detailed {
		return r.Name()
	}
	return fmt.Sprintf("%s\n%s %s", r.Name(), r.Class, r.ID)
}

func linkLabel(r *model.Resource) string {
	if r.Bool("skipLabel") {
		return ""
	}
	if lyph := r.Ref("conveyingLyph"); lyph != nil {
		return lyph.Name()
	}
	return r.Str("name")
}

// clusterFields lists the group fields drawn as cluster members.
var clusterFields = []string{"nodes", "lyphs", "regions", "materials"}

func (b *builder) String() string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, v := range b.vertices {
		buf.WriteString(v)
		buf.WriteByte('\n')
	}

	placed := make(map[string]bool)
	palette := colormap.NewPalette()
	for i, g := range b.groups {
		var members []string
		for _, field := range clusterFields {
			for _, m := range g.Refs(field) {
				if b.drawn[m.ID] && !placed[m.ID] {
					placed[m.ID] = true
					members = append(members, m.ID)
				}
			}
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", g.Name())
		buf.WriteString("    style=dashed;\n")
		color := g.Color()
		if color == "" {
			color = palette.Next()
		}
		fmt.Fprintf(&buf, "    color=%q;\n", color)
		for _, id := range members {
			fmt.Fprintf(&buf, "    %q;\n", id)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range b.edges {
		if !b.drawn[e.from] || !b.drawn[e.to] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.from, e.to, strings.Join(e.attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
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

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
