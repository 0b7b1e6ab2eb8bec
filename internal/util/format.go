package util

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Placeholder is shown for empty cells.
const Placeholder = "—"

// FormatCell flattens a cell value onto one line. Empty values render as
// Placeholder.
func FormatCell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	return strings.Join(strings.Fields(value), " ")
}

// FormatTimeHuman formats a timestamp relative to now.
// "Today 14:05", "Yesterday", "3d ago", "Jan 15", "Jan 15 '24"
func FormatTimeHuman(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	t = t.Local()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	days := int(math.Round(today.Sub(day).Hours() / 24))

	switch {
	case days == 0:
		return "Today " + t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%dd ago", days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatPage renders "page/total", with "?" for an unknown total.
func FormatPage(page, totalPages int, known bool) string {
	if !known {
		return fmt.Sprintf("%d/?", page)
	}
	return fmt.Sprintf("%d/%d", page, totalPages)
}

// Plural returns "1 item", "3 items".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
