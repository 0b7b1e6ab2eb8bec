package ui

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"tablo/internal/db"
	"tablo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigator(t *testing.T) {
	n := newNavigator("page=1")
	assert.False(t, n.canBack())

	n.visit("page=2", 1)
	n.visit("page=3", 2)
	n.visit("page=3", 3)
	assert.Equal(t, []string{"page=1", "page=2"}, n.back)

	var applied []string
	apply := func(raw string) {
		applied = append(applied, raw)
		// The store reports the replacement while the move is applied.
		n.visit(raw, 0)
	}

	assert.True(t, n.step(true, apply))
	assert.Equal(t, "page=2", n.current)
	assert.True(t, n.canForward())

	assert.True(t, n.step(true, apply))
	assert.False(t, n.step(true, apply))
	assert.Equal(t, "page=1", n.current)

	assert.True(t, n.step(false, apply))
	assert.Equal(t, "page=2", n.current)
	assert.Equal(t, []string{"page=2", "page=1", "page=2"}, applied)

	// A fresh visit drops the forward stack.
	n.visit("search=x", 4)
	assert.False(t, n.canForward())
	assert.Equal(t, []string{"page=1", "page=2"}, n.back)
}

func TestNavigator_DepthLimit(t *testing.T) {
	n := newNavigator("")
	for i := 0; i < maxNavigatorDepth+10; i++ {
		n.visit(fmt.Sprintf("page=%d", i+1), uint64(i))
	}
	assert.Len(t, n.back, maxNavigatorDepth)
}

func TestHistoryRecorder_DropsOlderVersions(t *testing.T) {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	r := newHistoryRecorder(database)
	newer := r.record("search=abc&sortOrder=asc&page=1&itemsPerPage=10", 3)
	older := r.record("search=ab&sortOrder=asc&page=1&itemsPerPage=10", 2)

	// The later keystroke's command is scheduled first.
	msg, ok := newer().(model.HistoryRecordedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	msg, ok = older().(model.HistoryRecordedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)

	last, err := db.LastQuery(context.Background(), database)
	require.NoError(t, err)
	assert.Equal(t, "search=abc&sortOrder=asc&page=1&itemsPerPage=10", last)

	entries, err := db.ListHistory(context.Background(), database, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistoryRecorder_ConcurrentWritesKeepLatest(t *testing.T) {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	r := newHistoryRecorder(database)
	const n = 20
	var wg sync.WaitGroup
	for v := n; v >= 1; v-- {
		cmd := r.record(fmt.Sprintf("search=%d", v), uint64(v))
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd()
		}()
	}
	wg.Wait()

	last, err := db.LastQuery(context.Background(), database)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("search=%d", n), last)
}

func TestHistoryRecorder_NoDatabase(t *testing.T) {
	assert.Nil(t, newHistoryRecorder(nil).record("page=1", 1))
}
