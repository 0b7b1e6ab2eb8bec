package ui

import (
	"fmt"
	"strings"

	"tablo/internal/model"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// ShareCommand returns the command line that reopens the table on raw.
func ShareCommand(endpoint, raw string) string {
	parts := []string{"tablo"}
	if endpoint != "" {
		parts = append(parts, "--endpoint", shellQuote(endpoint))
	}
	parts = append(parts, "--query", shellQuote(raw))
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	unsafe := strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case strings.ContainsRune("-_.,:/=%+@", r):
			return false
		}
		return true
	})
	if unsafe < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func copyShareCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to copy to clipboard: %w", err)}
		}
		return model.ClipboardCopiedMsg{Text: text}
	}
}
