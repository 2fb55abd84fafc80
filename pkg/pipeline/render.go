package pipeline

import (
	"fmt"

	"github.com/open-physiology/lyphgraph/pkg/model"
	"github.com/open-physiology/lyphgraph/pkg/render/nodelink"
)

// Render draws the registry in every requested render format. Export
// formats in opts.Formats are ignored.
func Render(reg *model.Registry, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)
	formats := opts.RenderFormats()
	if len(formats) == 0 {
		return artifacts, nil
	}

	dot := nodelink.ToDOT(reg, nodelink.Options{
		Detailed: opts.Detailed,
		Hidden:   opts.Hidden,
		Stubs:    opts.Stubs,
	})

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(dot)
		default:
			return nil, fmt.Errorf("unsupported render format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
