package ui

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"tablo/internal/db"
	"tablo/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

const maxNavigatorDepth = 100

// navigator keeps back/forward stacks of query lines. It observes every
// store replacement through visit; moves made by Back and Forward are not
// recorded as new visits.
type navigator struct {
	current string
	back    []string
	forward []string
	moving  bool
}

func newNavigator(initial string) *navigator {
	return &navigator{current: initial}
}

// visit is installed as the store's replace callback.
func (n *navigator) visit(raw string, _ uint64) {
	if n.moving || raw == n.current {
		n.current = raw
		return
	}
	n.back = append(n.back, n.current)
	if len(n.back) > maxNavigatorDepth {
		n.back = n.back[len(n.back)-maxNavigatorDepth:]
	}
	n.forward = nil
	n.current = raw
}

func (n *navigator) canBack() bool    { return len(n.back) > 0 }
func (n *navigator) canForward() bool { return len(n.forward) > 0 }

// step pops the target of a back (or forward) move and pushes the current
// line onto the opposite stack. apply is run with recording suspended.
func (n *navigator) step(backward bool, apply func(raw string)) bool {
	from, to := &n.back, &n.forward
	if !backward {
		from, to = &n.forward, &n.back
	}
	if len(*from) == 0 {
		return false
	}
	target := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, n.current)

	n.moving = true
	apply(target)
	n.moving = false
	n.current = target
	return true
}

// historyRecorder writes store replacements to the history table one at a
// time. Commands run in no fixed order, so a write for a store version older
// than one already written is dropped.
type historyRecorder struct {
	db *sql.DB

	mu      sync.Mutex
	written uint64
	any     bool
}

func newHistoryRecorder(database *sql.DB) *historyRecorder {
	return &historyRecorder{db: database}
}

// record returns the command persisting raw as store version. It is nil
// without a database.
func (r *historyRecorder) record(raw string, version uint64) tea.Cmd {
	if r == nil || r.db == nil {
		return nil
	}
	return func() tea.Msg {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.any && version <= r.written {
			return model.HistoryRecordedMsg{RawQuery: raw}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.RecordHistory(ctx, r.db, raw); err != nil {
			return model.HistoryRecordedMsg{RawQuery: raw, Err: err}
		}
		r.written = version
		r.any = true
		return model.HistoryRecordedMsg{RawQuery: raw}
	}
}
