package colormap

// categorical is d3's schemePaired followed by schemeDark2.
var categorical = []string{
	"#a6cee3", "#1f78b4", "#b2df8a", "#33a02c", "#fb9a99", "#e31a1c",
	"#fdbf6f", "#ff7f00", "#cab2d6", "#6a3d9a", "#ffff99", "#b15928",
	"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02",
	"#a6761d", "#666666",
}

// Palette hands out categorical colors in a fixed cycle. It is not safe for
// concurrent use.
type Palette struct {
	next int
}

// NewPalette returns a palette positioned at its first color.
func NewPalette() *Palette { return &Palette{} }

// Next returns the next color, wrapping after the last one.
func (p *Palette) Next() string {
	c := categorical[p.next%len(categorical)]
	p.next++
	return c
}

// Colorable is anything that carries a color field.
type Colorable interface {
	Color() string
	SetColor(string)
}

// AddColor assigns palette colors to items that have none, in order.
// It returns the number of items colored.
func (p *Palette) AddColor(items ...Colorable) int {
	n := 0
	for _, it := range items {
		if it.Color() != "" {
			continue
		}
		it.SetColor(p.Next())
		n++
	}
	return n
}
