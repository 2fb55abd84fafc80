// Package nodelink renders resource graphs as node-link diagrams.
//
// # Mapping
//
// [ToDOT] dispatches every resource through a model.Visitor:
//
//   - Node: a small circle filled with its color
//   - Link: an edge from source to target, labelled with the conveying lyph
//   - Lyph and Region: rounded boxes; lyph layers hang off their host with
//     dotted edges
//   - Material: a note shape
//   - Group: a cluster around the nodes and lyphs it lists, outlined in the
//     group's color or the next categorical palette color
//
// Borders, externals and other kinds are left out. Hidden resources and
// stubs are drawn only when [Options] asks for them.
//
// # Usage
//
//	dot := nodelink.ToDOT(reg, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// PDF and PNG go through SVG:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
