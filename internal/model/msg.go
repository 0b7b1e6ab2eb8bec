package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// PageLoadedMsg carries the outcome of one fetch. Seq identifies the request
// it answers so that superseded responses can be dropped.
type PageLoadedMsg struct {
	Seq  uint64
	Page Page
	Err  error
}

// ViewSavedMsg is sent when the current query line was saved under a name.
type ViewSavedMsg struct {
	View SavedView
}

// ClipboardCopiedMsg is sent after the share command was copied.
type ClipboardCopiedMsg struct {
	Text string
}

// HistoryRecordedMsg is sent after a query line was persisted. Err is set
// when persisting failed.
type HistoryRecordedMsg struct {
	RawQuery string
	Err      error
}

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	// ModeSearch edits the search text; every keystroke updates the query.
	ModeSearch
	// ModeQuery edits the raw query line; it is applied on enter.
	ModeQuery
	// ModeSaveView prompts for a saved view name.
	ModeSaveView
)
