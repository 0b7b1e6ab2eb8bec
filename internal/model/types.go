package model

import (
	"encoding/json"
	"slices"
	"time"

	"tablo/internal/query"

	"github.com/tidwall/gjson"
)

// Column describes a rendered column. Name is also the sort key sent to the
// data source and the path used to read cell values.
type Column struct {
	Name  string `koanf:"name" json:"name" validate:"required"`
	Label string `koanf:"label" json:"label"`
}

// Title returns Label, or Name when no label is set.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// Item is one row returned by the data source, kept as its raw JSON object.
type Item struct {
	raw json.RawMessage
}

// NewItem wraps a raw JSON object.
func NewItem(raw json.RawMessage) Item {
	return Item{raw: raw}
}

// ID returns the item's id field as text.
func (it Item) ID() string {
	return gjson.GetBytes(it.raw, "id").String()
}

// Value returns the display text of the named column. Nested fields can be
// addressed with dots ("address.city"). Missing fields yield "".
func (it Item) Value(column string) string {
	res := gjson.GetBytes(it.raw, column)
	if !res.Exists() || res.Type == gjson.Null {
		return ""
	}
	return res.String()
}

// Raw returns the underlying JSON.
func (it Item) Raw() json.RawMessage {
	return it.raw
}

// Page is a decoded data source response.
type Page struct {
	Items []Item
	// Total is the size of the whole collection when TotalKnown is set.
	Total      int
	TotalKnown bool
}

// View is everything the grid needs to render. Rendering is a pure
// function of it.
type View struct {
	Loading    bool
	Err        error
	Headers    []Column
	Items      []Item
	Selected   []int
	TotalItems int
	TotalKnown bool
	TotalPages int
	// CanPrev and CanNext report whether the neighbouring pages are reachable.
	CanPrev bool
	CanNext bool
	Options query.Options
}

// IsSelected reports whether the row at pos is checked.
func (v View) IsSelected(pos int) bool {
	return slices.Contains(v.Selected, pos)
}

// HistoryEntry is a recorded query line.
type HistoryEntry struct {
	ID        int64
	RawQuery  string
	VisitedAt time.Time
}

// SavedView is a named, persisted query line.
type SavedView struct {
	ID        string
	Name      string
	RawQuery  string
	CreatedAt time.Time
}
