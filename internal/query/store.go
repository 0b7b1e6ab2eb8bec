package query

// ReplaceFunc is invoked after the store accepts new parameter text.
type ReplaceFunc func(raw string, version uint64)

// Store is the canonical parameter store. It holds the query text, the
// options derived from it and a version that increases on every accepted
// replacement. All writes go through Replace or Update.
type Store struct {
	raw       string
	version   uint64
	options   Options
	onReplace ReplaceFunc
}

// NewStore seeds the store with raw. onReplace may be nil and is not called
// for the initial text.
func NewStore(raw string, onReplace ReplaceFunc) *Store {
	raw = trimRaw(raw)
	return &Store{
		raw:       raw,
		options:   DeriveRaw(raw),
		onReplace: onReplace,
	}
}

// Raw returns the current query text without a leading '?'.
func (s *Store) Raw() string {
	return s.raw
}

// Version returns the number of accepted replacements.
func (s *Store) Version() uint64 {
	return s.version
}

// Options returns the options derived from the current text.
func (s *Store) Options() Options {
	return s.options
}

// Replace swaps the query text and re-derives the options. Identical text
// is ignored. It reports whether the derived options changed.
func (s *Store) Replace(raw string) bool {
	raw = trimRaw(raw)
	if raw == s.raw {
		return false
	}
	prev := s.options
	s.raw = raw
	s.version++
	s.options = DeriveRaw(raw)
	if s.onReplace != nil {
		s.onReplace(raw, s.version)
	}
	return s.options != prev
}

// Update serializes opts and replaces the query text with the result.
func (s *Store) Update(opts Options) bool {
	return s.Replace(Serialize(opts))
}
