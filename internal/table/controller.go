// Package table holds the table controller: fetch orchestration, row
// selection and the sort, search and pagination operations.
package table

import (
	"errors"
	"io"
	"slices"

	"tablo/internal/model"
	"tablo/internal/query"

	"github.com/charmbracelet/log"
)

// MinColumns is the smallest column set the table renders.
const MinColumns = 4

// ErrTooFewColumns is returned by New for column sets below MinColumns.
var ErrTooFewColumns = errors.New("should have at least 4 columns")

// Status is the fetch lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Request is a fetch the caller must execute. Seq must be handed back to
// Resolve with the result.
type Request struct {
	Seq     uint64
	Options query.Options
}

// Controller owns the displayed page, its selection and the fetch status.
// Option changes are never applied locally: every operation hands a new
// query.Options to the store and reacts to what the store derives.
// It is not safe for concurrent use; drive it from one event loop.
type Controller struct {
	columns       []model.Column
	store         *query.Store
	policy        query.ResetPolicy
	fallbackTotal int
	logger        *log.Logger

	status     Status
	err        error
	items      []model.Item
	total      int
	totalKnown bool
	selected   map[int]struct{}
	seq        uint64
}

// Option customises a Controller.
type Option func(*Controller)

// WithResetPolicy sets which changes send the table back to page 1.
func WithResetPolicy(p query.ResetPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithFallbackTotal sets the collection size used when a response does not
// report one. Zero leaves the total unknown.
func WithFallbackTotal(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.fallbackTotal = n
		}
	}
}

// WithLogger sets the logger for fetch lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a controller over columns backed by store.
func New(columns []model.Column, store *query.Store, opts ...Option) (*Controller, error) {
	if len(columns) < MinColumns {
		return nil, ErrTooFewColumns
	}
	if store == nil {
		store = query.NewStore("", nil)
	}
	c := &Controller{
		columns:  slices.Clone(columns),
		store:    store,
		policy:   query.DefaultResetPolicy,
		logger:   log.New(io.Discard),
		selected: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.applyTotal(model.Page{})
	return c, nil
}

// Start issues the fetch for the store's current options.
func (c *Controller) Start() Request {
	return c.OnOptionsChanged(c.store.Options())
}

// OnOptionsChanged marks the table loading, clears the selection and
// returns the request for opts under a new sequence number.
func (c *Controller) OnOptionsChanged(opts query.Options) Request {
	c.seq++
	c.status = StatusLoading
	c.err = nil
	c.clearSelection()
	c.logger.Debug("fetch issued", "seq", c.seq, "page", opts.Page, "limit", int(opts.ItemsPerPage),
		"search", opts.Search, "sortBy", opts.SortBy, "order", string(opts.SortOrder))
	return Request{Seq: c.seq, Options: opts}
}

// Resolve applies the outcome of request seq. Responses for anything but
// the latest request are dropped and Resolve returns false.
func (c *Controller) Resolve(seq uint64, page model.Page, err error) bool {
	if seq != c.seq || c.status != StatusLoading {
		c.logger.Debug("stale response dropped", "seq", seq, "latest", c.seq)
		return false
	}
	c.clearSelection()
	if err != nil {
		c.status = StatusError
		c.err = err
		c.items = nil
		c.logger.Warn("fetch failed", "seq", seq, "err", err)
		return true
	}
	c.status = StatusIdle
	c.err = nil
	c.items = page.Items
	c.applyTotal(page)
	c.logger.Debug("fetch resolved", "seq", seq, "items", len(page.Items), "total", c.total, "totalKnown", c.totalKnown)
	return true
}

// Retry re-issues the current options. It is refused while a fetch is in
// flight.
func (c *Controller) Retry() (Request, bool) {
	if c.status == StatusLoading {
		return Request{}, false
	}
	return c.OnOptionsChanged(c.store.Options()), true
}

// Navigate replaces the query text wholesale, as when the query line is
// typed in, restored from history or loaded from a saved view.
func (c *Controller) Navigate(raw string) (Request, bool) {
	if !c.store.Replace(raw) {
		return Request{}, false
	}
	return c.OnOptionsChanged(c.store.Options()), true
}

// ToggleSort flips the direction when column is already the sort column,
// otherwise sorts by column ascending. Unknown columns are refused.
func (c *Controller) ToggleSort(column string) (Request, bool) {
	if !c.hasColumn(column) {
		return Request{}, false
	}
	next := c.store.Options()
	if next.SortBy == column {
		next.SortOrder = next.SortOrder.Toggle()
		if c.policy.OnSortDirection {
			next.Page = 1
		}
	} else {
		next.SortBy = column
		next.SortOrder = query.SortAsc
		if c.policy.OnSortColumn {
			next.Page = 1
		}
	}
	return c.emit(next)
}

// UpdateSearch replaces the search text.
func (c *Controller) UpdateSearch(text string) (Request, bool) {
	next := c.store.Options()
	next.Search = text
	if c.policy.OnSearch {
		next.Page = 1
	}
	return c.emit(next)
}

// ChangePage moves to target when CanChangePage allows it.
func (c *Controller) ChangePage(target int) (Request, bool) {
	if !c.CanChangePage(target) {
		return Request{}, false
	}
	next := c.store.Options()
	next.Page = target
	return c.emit(next)
}

// NextPage moves one page forward.
func (c *Controller) NextPage() (Request, bool) {
	return c.ChangePage(c.store.Options().Page + 1)
}

// PrevPage moves one page back. From a page past the end it moves to the
// last page.
func (c *Controller) PrevPage() (Request, bool) {
	return c.ChangePage(c.prevTarget())
}

// ChangeItemsPerPage switches the page size. Sizes outside the allowlist
// are refused.
func (c *Controller) ChangeItemsPerPage(n query.ItemsPerPage) (Request, bool) {
	if !n.Valid() {
		return Request{}, false
	}
	next := c.store.Options()
	next.ItemsPerPage = n
	if c.policy.OnPageSize {
		next.Page = 1
	}
	return c.emit(next)
}

// ToggleRowSelected checks or unchecks the row at pos on the current page.
// Positions outside the page, and toggles while loading, are ignored.
func (c *Controller) ToggleRowSelected(pos int, checked bool) bool {
	if c.status == StatusLoading || pos < 0 || pos >= len(c.items) {
		return false
	}
	if checked {
		c.selected[pos] = struct{}{}
	} else {
		delete(c.selected, pos)
	}
	return true
}

// IsSelected reports whether the row at pos is checked.
func (c *Controller) IsSelected(pos int) bool {
	_, ok := c.selected[pos]
	return ok
}

// Selected returns the checked positions in ascending order.
func (c *Controller) Selected() []int {
	out := make([]int, 0, len(c.selected))
	for pos := range c.selected {
		out = append(out, pos)
	}
	slices.Sort(out)
	return out
}

// TotalPages is ceil(total / itemsPerPage), or 0 while the total is unknown.
func (c *Controller) TotalPages() int {
	if !c.totalKnown {
		return 0
	}
	perPage := int(c.store.Options().ItemsPerPage)
	if perPage <= 0 {
		return 0
	}
	return (c.total + perPage - 1) / perPage
}

// CanChangePage reports whether target is a reachable page. With an unknown
// total only earlier pages are reachable.
func (c *Controller) CanChangePage(target int) bool {
	if target < 1 {
		return false
	}
	if !c.totalKnown {
		return target < c.store.Options().Page
	}
	return target <= c.TotalPages()
}

// HasNext reports whether the next page is reachable.
func (c *Controller) HasNext() bool {
	return c.CanChangePage(c.store.Options().Page + 1)
}

// HasPrev reports whether PrevPage would be accepted.
func (c *Controller) HasPrev() bool {
	return c.CanChangePage(c.prevTarget())
}

// Options returns the store's current options.
func (c *Controller) Options() query.Options {
	return c.store.Options()
}

// RawQuery returns the store's current query text.
func (c *Controller) RawQuery() string {
	return c.store.Raw()
}

// Columns returns the configured columns.
func (c *Controller) Columns() []model.Column {
	return c.columns
}

// Items returns the displayed page.
func (c *Controller) Items() []model.Item {
	return c.items
}

// Status returns the fetch state.
func (c *Controller) Status() Status {
	return c.status
}

// Err returns the failure reason while in StatusError.
func (c *Controller) Err() error {
	return c.err
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	return c.status == StatusLoading
}

// Seq returns the sequence number of the latest issued request.
func (c *Controller) Seq() uint64 {
	return c.seq
}

// Snapshot returns the rendering input for the current state.
func (c *Controller) Snapshot() model.View {
	return model.View{
		Loading:    c.status == StatusLoading,
		Err:        c.err,
		Headers:    c.columns,
		Items:      c.items,
		Selected:   c.Selected(),
		TotalItems: c.total,
		TotalKnown: c.totalKnown,
		TotalPages: c.TotalPages(),
		CanPrev:    c.HasPrev(),
		CanNext:    c.HasNext(),
		Options:    c.store.Options(),
	}
}

// emit hands next to the store and, when the derived options changed,
// starts the matching fetch.
func (c *Controller) emit(next query.Options) (Request, bool) {
	if !c.store.Update(next) {
		return Request{}, false
	}
	return c.OnOptionsChanged(c.store.Options()), true
}

func (c *Controller) prevTarget() int {
	page := c.store.Options().Page
	if last := c.TotalPages(); c.totalKnown && last >= 1 && page > last {
		return last
	}
	return page - 1
}

func (c *Controller) applyTotal(page model.Page) {
	switch {
	case page.TotalKnown:
		c.total = page.Total
		c.totalKnown = true
	case c.fallbackTotal > 0:
		c.total = c.fallbackTotal
		c.totalKnown = true
	default:
		c.total = 0
		c.totalKnown = false
	}
}

func (c *Controller) clearSelection() {
	clear(c.selected)
}

func (c *Controller) hasColumn(name string) bool {
	for _, col := range c.columns {
		if col.Name == name {
			return true
		}
	}
	return false
}
