package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnSeparator = " "

func tableSeparatorWidth() int {
	return lipgloss.Width(columnSeparator)
}

func formatHeaderLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

func renderActiveHeaderLabel(label string) string {
	return ActiveHeaderStyle.Render(label)
}

func sortArrow(desc bool) string {
	if desc {
		return " ↓"
	}
	return " ↑"
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).MaxWidth(widths[i]).Render(cell))
	}
	return strings.Join(parts, columnSeparator)
}

func renderTableDivider(widths []int) string {
	total := 0
	for _, w := range widths {
		total += w
	}
	total += max(0, len(widths)-1) * tableSeparatorWidth()
	return DividerStyle.Render(strings.Repeat("─", total))
}
