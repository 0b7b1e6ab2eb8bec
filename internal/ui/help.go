package ui

import (
	"strings"

	"tablo/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(mode model.Mode, width int) string {
	switch mode {
	case model.ModeSearch:
		return renderHelpLine([]string{
			helpKey("type", "filter as you go"),
			helpKey("enter/esc", "done"),
		}, width)
	case model.ModeQuery:
		return renderHelpLine([]string{
			helpKey("enter", "apply query"),
			helpKey("esc", "cancel"),
		}, width)
	case model.ModeSaveView:
		return renderHelpLine([]string{
			helpKey("enter", "save"),
			helpKey("esc", "cancel"),
		}, width)
	default:
		return renderTableHelp(width)
	}
}

func renderTableHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("space", "select"),
		helpKey("tab", "next col"),
		helpKey("s", "sort"),
		helpKey("/", "search"),
		helpKey("h/l", "page"),
		helpKey("+", "page size"),
		helpKey("[/]", "back/fwd"),
		helpKey("?", "help"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Rows"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg", "Jump to top"},
			{"G", "Jump to bottom"},
			{"space / x", "Select or unselect row"},
		}),
		titleSection("Columns & Sorting"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Cycle active column"},
			{"s", "Sort by active column, again to flip"},
		}),
		titleSection("Query"),
		helpSection([]helpItem{
			{"/", "Search (updates on every keystroke)"},
			{":", "Edit the query line"},
			{"h / ←", "Previous page"},
			{"l / →", "Next page"},
			{"+", "Cycle page size 10 / 25 / 100"},
			{"r", "Reload or retry"},
			{"[ / ]", "Back / forward through visited queries"},
		}),
		titleSection("Sharing"),
		helpSection([]helpItem{
			{"y", "Copy a command that reopens this view"},
			{"m", "Save the query as a named view"},
		}),
		titleSection("General"),
		helpSection([]helpItem{
			{"esc", "Cancel / clear messages"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
