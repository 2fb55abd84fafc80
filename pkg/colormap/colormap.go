// Package colormap provides continuous color scales and categorical palettes
// named after d3-scale-chromatic.
//
// A scale maps t in [0, 1] to a hex color by blending between fixed color
// stops:
//
//	f, ok := colormap.Lookup("interpolateBlues")
//	f(0.5) // "#6baed6"
package colormap

import (
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Func maps t in [0, 1] to a "#rrggbb" color. Values outside the range are
// clamped.
type Func func(t float64) string

const prefix = "interpolate"

var stops = map[string][]string{
	"Blues":   {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	"Greens":  {"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"},
	"Greys":   {"#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525", "#000000"},
	"Oranges": {"#fff5eb", "#fee6ce", "#fdd0a2", "#fdae6b", "#fd8d3c", "#f16913", "#d94801", "#a63603", "#7f2704"},
	"Purples": {"#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d"},
	"Reds":    {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
	"YlOrRd":  {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"},
	"Viridis": {"#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
	"Plasma":  {"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"},
	"Inferno": {"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60", "#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"},
	"Magma":   {"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f", "#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"},
	"Spectral": {"#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b", "#ffffbf", "#e6f598", "#abdda4",
		"#66c2a5", "#3288bd", "#5e4fa2"},
	"RdBu": {"#67001f", "#b2182b", "#d6604d", "#f4a582", "#fddbc7", "#f7f7f7", "#d1e5f0", "#92c5de",
		"#4393c3", "#2166ac", "#053061"},
}

var scales = func() map[string][]colorful.Color {
	out := make(map[string][]colorful.Color, len(stops))
	for name, hexes := range stops {
		cs := make([]colorful.Color, len(hexes))
		for i, h := range hexes {
			c, err := colorful.Hex(h)
			if err != nil {
				panic("colormap: bad stop " + h + " in " + name)
			}
			cs[i] = c
		}
		out[name] = cs
	}
	return out
}()

// Lookup returns the scale with the given name. Both the d3 function name
// ("interpolateViridis") and the bare scheme name ("Viridis") are accepted.
func Lookup(name string) (Func, bool) {
	cs, ok := scales[strings.TrimPrefix(name, prefix)]
	if !ok {
		return nil, false
	}
	return func(t float64) string { return sample(cs, t) }, true
}

// Names returns the d3 function names of every known scale, sorted.
func Names() []string {
	out := make([]string, 0, len(stops))
	for name := range stops {
		out = append(out, prefix+name)
	}
	sort.Strings(out)
	return out
}

func sample(cs []colorful.Color, t float64) string {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(cs)-1)
	i := int(math.Floor(pos))
	if i >= len(cs)-1 {
		return cs[len(cs)-1].Hex()
	}
	frac := pos - float64(i)
	if frac == 0 {
		return cs[i].Hex()
	}
	return cs[i].BlendLab(cs[i+1], frac).Clamped().Hex()
}
