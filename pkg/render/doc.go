// Package render turns hydrated resource graphs into pictures.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage walks a model registry with a visitor and emits
// Graphviz DOT: nodes and lyphs become vertices, links become edges, and
// groups become clusters. DOT is laid out in-process with go-graphviz.
//
//	dot := nodelink.ToDOT(reg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG to other formats with the external
// rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/open-physiology/lyphgraph/pkg/render/nodelink
package render
