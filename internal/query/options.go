// Package query derives table query options from the canonical parameter
// text and serializes them back.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Parameter keys of the query line.
const (
	KeySearch       = "search"
	KeySortBy       = "sortBy"
	KeySortOrder    = "sortOrder"
	KeyPage         = "page"
	KeyItemsPerPage = "itemsPerPage"
)

// SortOrder is the direction of the active sort column.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Toggle returns the opposite direction.
func (o SortOrder) Toggle() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// ItemsPerPage is one of the allowed page sizes.
type ItemsPerPage int

const (
	PerPage10  ItemsPerPage = 10
	PerPage25  ItemsPerPage = 25
	PerPage100 ItemsPerPage = 100
)

// PageSizes lists the allowed page sizes in display order.
var PageSizes = []ItemsPerPage{PerPage10, PerPage25, PerPage100}

// ParseItemsPerPage matches raw against the allowlist. Anything other than
// "25" or "100" yields 10, including "10" itself.
func ParseItemsPerPage(raw string) ItemsPerPage {
	switch raw {
	case "25":
		return PerPage25
	case "100":
		return PerPage100
	default:
		return PerPage10
	}
}

// Valid reports whether n is an allowed page size.
func (n ItemsPerPage) Valid() bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}

// Next cycles to the following allowed page size.
func (n ItemsPerPage) Next() ItemsPerPage {
	for i, size := range PageSizes {
		if size == n {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return PerPage10
}

// Options is the typed query state every table operation works on. Values
// are never mutated in place; operations build a new Options.
type Options struct {
	Search       string
	SortBy       string
	SortOrder    SortOrder
	Page         int
	ItemsPerPage ItemsPerPage
}

// Defaults returns the options of an empty query line.
func Defaults() Options {
	return Options{
		SortOrder:    SortAsc,
		Page:         1,
		ItemsPerPage: PerPage10,
	}
}

// Derive maps raw parameters to Options. Absent or unparseable fields fall
// back to their defaults; it never fails.
func Derive(params url.Values) Options {
	opts := Defaults()
	opts.Search = params.Get(KeySearch)
	opts.SortBy = params.Get(KeySortBy)
	if params.Get(KeySortOrder) == string(SortDesc) {
		opts.SortOrder = SortDesc
	}
	if raw := params.Get(KeyPage); raw != "" {
		opts.Page = parsePage(raw)
	}
	opts.ItemsPerPage = ParseItemsPerPage(params.Get(KeyItemsPerPage))
	return opts
}

// DeriveRaw parses query text (with or without a leading '?') and derives
// Options from it. Malformed pairs are skipped.
func DeriveRaw(raw string) Options {
	return Derive(parseParams(trimRaw(raw)))
}

// parseParams splits query text on '&' only, so ';' stays part of a value.
// Pairs with an invalid escape are skipped.
func parseParams(raw string) url.Values {
	params := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		params.Add(key, value)
	}
	return params
}

// Serialize renders opts as query text. Every field with a non-empty,
// non-zero value is emitted in a fixed order; empty fields are omitted.
// sortOrder=asc is emitted even though it is the default.
func Serialize(opts Options) string {
	pairs := make([]string, 0, 5)
	add := func(key, value string) {
		if value == "" {
			return
		}
		pairs = append(pairs, key+"="+url.QueryEscape(value))
	}

	add(KeySearch, opts.Search)
	add(KeySortBy, opts.SortBy)
	add(KeySortOrder, string(opts.SortOrder))
	if opts.Page != 0 {
		add(KeyPage, strconv.Itoa(opts.Page))
	}
	if opts.ItemsPerPage != 0 {
		add(KeyItemsPerPage, strconv.Itoa(int(opts.ItemsPerPage)))
	}
	return strings.Join(pairs, "&")
}

// parsePage reads the leading integer of raw. Text without leading digits,
// and values below 1, yield page 1.
func parsePage(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	page, err := strconv.Atoi(s[:end])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func trimRaw(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "?")
}
