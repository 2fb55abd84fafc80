package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/open-physiology/lyphgraph/pkg/model"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive resource browser
// =============================================================================

// fieldRow is one line of the detail view. Rows with a target can be
// followed with enter.
type fieldRow struct {
	field  string
	text   string
	target *model.Resource
}

// BrowseModel is the bubbletea model for browsing a hydrated registry.
//
// The list view shows every resource. Enter opens a resource; in the detail
// view enter follows the selected reference and backspace goes back.
// "/" filters the list by id, class or name.
type BrowseModel struct {
	Registry *model.Registry

	Cursor int
	Offset int
	Height int

	// Current is the resource shown in the detail view, nil in the list.
	Current *model.Resource
	History []*model.Resource

	Filter    string
	Filtering bool

	items []*model.Resource
	rows  []fieldRow
	// listCursor restores the list position when leaving the detail view.
	listCursor int
}

// NewBrowseModel creates a browser over reg.
func NewBrowseModel(reg *model.Registry) BrowseModel {
	m := BrowseModel{Registry: reg, Height: 15}
	m.items = m.filtered()
	return m
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering {
			return m.updateFilter(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter", "right", "l":
			m.open()
		case "backspace", "esc", "left", "h":
			m.back()
		case "/":
			if m.Current == nil {
				m.Filtering = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) updateFilter(msg tea.KeyMsg) BrowseModel {
	switch msg.Type {
	case tea.KeyEnter:
		m.Filtering = false
	case tea.KeyEsc:
		m.Filtering = false
		m.Filter = ""
	case tea.KeyBackspace:
		if len(m.Filter) > 0 {
			m.Filter = m.Filter[:len(m.Filter)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.Filter += string(msg.Runes)
	}
	m.items = m.filtered()
	m.Cursor, m.Offset = 0, 0
	return m
}

// length is the number of selectable lines in the current view.
func (m *BrowseModel) length() int {
	if m.Current != nil {
		return len(m.rows)
	}
	return len(m.items)
}

func (m *BrowseModel) move(delta int) {
	n := m.length()
	if n == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), n-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *BrowseModel) open() {
	if m.Current == nil {
		if len(m.items) == 0 {
			return
		}
		m.listCursor = m.Cursor
		m.show(m.items[m.Cursor])
		return
	}
	if len(m.rows) == 0 {
		return
	}
	if target := m.rows[m.Cursor].target; target != nil {
		m.History = append(m.History, m.Current)
		m.show(target)
	}
}

func (m *BrowseModel) back() {
	if m.Current == nil {
		if m.Filter != "" {
			m.Filter = ""
			m.items = m.filtered()
			m.Cursor, m.Offset = 0, 0
		}
		return
	}
	if n := len(m.History); n > 0 {
		prev := m.History[n-1]
		m.History = m.History[:n-1]
		m.show(prev)
		return
	}
	m.Current = nil
	m.rows = nil
	m.Cursor, m.Offset = m.listCursor, 0
	m.move(0)
}

func (m *BrowseModel) show(res *model.Resource) {
	m.Current = res
	m.rows = detailRows(res)
	m.Cursor, m.Offset = 0, 0
}

// filtered returns the resources matching the filter.
func (m BrowseModel) filtered() []*model.Resource {
	if m.Registry == nil {
		return nil
	}
	all := m.Registry.All()
	if m.Filter == "" {
		return all
	}
	needle := strings.ToLower(m.Filter)
	var out []*model.Resource
	for _, res := range all {
		hay := strings.ToLower(res.ID + " " + res.Class + " " + res.Name())
		if strings.Contains(hay, needle) {
			out = append(out, res)
		}
	}
	return out
}

// detailRows lists the fields of res, one row per reference.
func detailRows(res *model.Resource) []fieldRow {
	keys := make([]string, 0, len(res.Fields))
	for k := range res.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []fieldRow
	for _, k := range keys {
		if refs := res.Refs(k); len(refs) > 0 {
			for _, ref := range refs {
				rows = append(rows, fieldRow{field: k, text: refLabel(ref), target: ref})
			}
			continue
		}
		rows = append(rows, fieldRow{field: k, text: valueText(res.Fields[k])})
	}
	return rows
}

func refLabel(res *model.Resource) string {
	if res.Stub {
		return res.ID + " (unresolved)"
	}
	label := res.ID + " : " + res.Class
	if name := res.Str("name"); name != "" {
		label += " " + fmt.Sprintf("%q", name)
	}
	return label
}

func valueText(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case float64:
		return model.FormatID(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = valueText(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("{%d keys}", len(t))
	case *model.Resource:
		return refLabel(t)
	default:
		return fmt.Sprint(t)
	}
}

func (m BrowseModel) View() string {
	if m.Current != nil {
		return m.detailView()
	}
	return m.listView()
}

func (m BrowseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Resources"))
	b.WriteString("\n")
	switch {
	case m.Filtering:
		b.WriteString(listSelectedStyle.Render("/" + m.Filter + "▏"))
	case m.Filter != "":
		b.WriteString(listDimStyle.Render("filter: " + m.Filter + "  (esc clears)"))
	default:
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  / filter  q quit"))
	}
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		res := m.items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		class := res.Class
		if res.Stub {
			class = "?"
		}
		rows = append(rows, []string{cursor, res.ID, class, res.Str("name")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Id", "Class", "Name").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.items) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.items[idx].Stub:
				return listDimStyle
			case col == 2:
				return StyleRef
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.items) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.items))))

	return b.String()
}

func (m BrowseModel) detailView() string {
	var b strings.Builder
	res := m.Current

	b.WriteString(StyleTitle.Render(res.ID))
	b.WriteString(" " + StyleRef.Render(res.Class))
	if res.Stub {
		b.WriteString(" " + StyleWarning.Render("unresolved"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ follow  ⌫ back  q quit"))
	b.WriteString("\n")
	if len(m.History) > 0 {
		trail := make([]string, len(m.History))
		for i, h := range m.History {
			trail[i] = h.ID
		}
		b.WriteString(listDimStyle.Render(strings.Join(trail, " › ") + " › " + res.ID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (no fields)"))
		return b.String()
	}

	width := 0
	for _, r := range m.rows {
		width = max(width, len(r.field))
	}
	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		label := fmt.Sprintf("%-*s", width, r.field)
		value := listNormalStyle.Render(r.text)
		if r.target != nil {
			value = StyleRef.Render(iconArrow + " " + r.text)
		}
		line := cursor + listDimStyle.Render(label) + "  " + value
		if i == m.Cursor {
			line = listSelectedStyle.Render(cursor+label) + "  " + value
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
