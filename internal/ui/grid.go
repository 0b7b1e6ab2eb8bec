package ui

import (
	"fmt"
	"strings"

	"tablo/internal/model"
	"tablo/internal/query"
	"tablo/internal/util"

	"github.com/charmbracelet/lipgloss"
)

const (
	checkboxWidth = 5
	minCellWidth  = 8
	maxCellWidth  = 32
)

// GridModel holds the grid's cursor, scroll offset and active column. Rows
// and headers come from a model.View on every render.
type GridModel struct {
	cursor       int
	offset       int
	activeColumn int

	viewportHeight int
}

// Cursor returns the highlighted row position.
func (g *GridModel) Cursor() int {
	return g.cursor
}

// ActiveColumn returns the index of the column that s sorts by.
func (g *GridModel) ActiveColumn() int {
	return g.activeColumn
}

// SetActiveColumn selects column idx out of n, ignoring invalid indexes.
func (g *GridModel) SetActiveColumn(idx, n int) bool {
	if idx < 0 || idx >= n {
		return false
	}
	g.activeColumn = idx
	return true
}

// NextColumn moves the active column right, wrapping around.
func (g *GridModel) NextColumn(n int) {
	if n == 0 {
		return
	}
	g.activeColumn = (g.activeColumn + 1) % n
}

// PrevColumn moves the active column left, wrapping around.
func (g *GridModel) PrevColumn(n int) {
	if n == 0 {
		return
	}
	g.activeColumn--
	if g.activeColumn < 0 {
		g.activeColumn = n - 1
	}
}

// Clamp keeps the cursor inside a page of rows.
func (g *GridModel) Clamp(rows int) {
	if rows == 0 {
		g.cursor = 0
		g.offset = 0
		return
	}
	if g.cursor >= rows {
		g.cursor = rows - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
	if g.offset > g.cursor {
		g.offset = g.cursor
	}
}

// MoveDown moves the cursor down.
func (g *GridModel) MoveDown(rows int) {
	if g.cursor < rows-1 {
		g.cursor++
		vh := g.viewport()
		if g.cursor >= g.offset+vh {
			g.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (g *GridModel) MoveUp() {
	if g.cursor > 0 {
		g.cursor--
		if g.cursor < g.offset {
			g.offset--
		}
	}
}

// JumpToTop jumps to the first row.
func (g *GridModel) JumpToTop() {
	g.cursor = 0
	g.offset = 0
}

// JumpToBottom jumps to the last row.
func (g *GridModel) JumpToBottom(rows int) {
	if rows > 0 {
		g.cursor = rows - 1
		vh := g.viewport()
		if g.cursor >= vh {
			g.offset = g.cursor - vh + 1
		}
	}
}

func (g *GridModel) viewport() int {
	if g.viewportHeight == 0 {
		return 10
	}
	return g.viewportHeight
}

// View renders v as a grid of the given size. The grid itself only depends
// on v and the cursor state.
func (g *GridModel) View(v model.View, width, height int) string {
	widths := columnWidths(v, width)

	headers := make([]string, 0, len(v.Headers)+1)
	headers = append(headers, "")
	for i, col := range v.Headers {
		label := formatHeaderLabel(col.Title())
		if i == g.activeColumn {
			label = renderActiveHeaderLabel(label)
		}
		if v.Options.SortBy != "" && v.Options.SortBy == col.Name {
			label += sortArrow(v.Options.SortOrder == query.SortDesc)
		}
		headers = append(headers, label)
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)
	divider := renderTableDivider(widths)

	visibleHeight := max(1, height-3)
	g.viewportHeight = visibleHeight

	var body string
	switch {
	case v.Loading:
		body = NormalRowStyle.Render("Loading...")
	case v.Err != nil:
		body = ErrorStyle.Render(fmt.Sprintf("Failed to load: %v  (r to retry)", v.Err))
	case len(v.Items) == 0:
		body = EmptyStateStyle.Render(emptyMessage(v.Options))
	default:
		g.Clamp(len(v.Items))
		if g.cursor >= g.offset+visibleHeight {
			g.offset = g.cursor - visibleHeight + 1
		}
		var rows []string
		for i := g.offset; i < len(v.Items) && i < g.offset+visibleHeight; i++ {
			rows = append(rows, g.renderRow(v, i, widths))
		}
		body = strings.Join(rows, "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, divider, body)
	status := StatusBarStyle.Render(g.statusLine(v))

	spacerHeight := max(0, height-lipgloss.Height(content)-lipgloss.Height(status))
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")

	return lipgloss.JoinVertical(lipgloss.Left, content, spacer, status)
}

func (g *GridModel) renderRow(v model.View, i int, widths []int) string {
	item := v.Items[i]
	checked := v.IsSelected(i)

	style := NormalRowStyle
	if checked {
		style = CheckedRowStyle
	}
	if i == g.cursor {
		style = SelectedRowStyle
	}

	box := "[ ]"
	if checked {
		box = "[x]"
	}
	cells := make([]string, 0, len(v.Headers)+1)
	cells = append(cells, box)
	for c, col := range v.Headers {
		cells = append(cells, util.TruncateString(util.FormatCell(item.Value(col.Name)), widths[c+1]-2))
	}
	return renderTableRow(cells, widths, style)
}

func (g *GridModel) statusLine(v model.View) string {
	prev := DisabledStyle.Render("‹ prev")
	if v.CanPrev {
		prev = EnabledStyle.Render("‹ prev")
	}
	next := DisabledStyle.Render("next ›")
	if v.CanNext {
		next = EnabledStyle.Render("next ›")
	}

	parts := []string{
		fmt.Sprintf("%s page %s %s", prev, util.FormatPage(v.Options.Page, v.TotalPages, v.TotalKnown), next),
		fmt.Sprintf("%d per page", int(v.Options.ItemsPerPage)),
	}
	if v.TotalKnown {
		parts = append(parts, util.Plural(v.TotalItems, "item"))
	}
	if len(v.Selected) > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", len(v.Selected)))
	}
	if len(v.Items) > 0 && !v.Loading {
		parts = append(parts, fmt.Sprintf("row %d/%d", g.cursor+1, len(v.Items)))
	}
	if g.activeColumn < len(v.Headers) {
		parts = append(parts, "col "+formatHeaderLabel(v.Headers[g.activeColumn].Title()))
	}
	return strings.Join(parts, "  ·  ")
}

func emptyMessage(opts query.Options) string {
	if opts.Search != "" {
		return fmt.Sprintf("No rows match %q.", opts.Search)
	}
	return "No rows on this page."
}

// columnWidths sizes the checkbox column and one column per header from
// the labels and the visible cell values. Leftover width goes to the last
// column.
func columnWidths(v model.View, width int) []int {
	widths := make([]int, 0, len(v.Headers)+1)
	widths = append(widths, checkboxWidth)
	total := checkboxWidth
	for _, col := range v.Headers {
		w := lipgloss.Width(formatHeaderLabel(col.Title())) + 4
		for _, item := range v.Items {
			w = max(w, lipgloss.Width(util.FormatCell(item.Value(col.Name)))+2)
		}
		w = min(max(w, minCellWidth), maxCellWidth)
		widths = append(widths, w)
		total += w
	}
	total += (len(widths) - 1) * tableSeparatorWidth()
	if extra := width - total - 2; extra > 0 {
		widths[len(widths)-1] += extra
	}
	return widths
}
