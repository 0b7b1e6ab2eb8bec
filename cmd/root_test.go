package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tablo/internal/config"
	"tablo/internal/db"
	"tablo/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersJSON = `[
  {"id":"1","first_name":"Ann","last_name":"Lee","gender":"F","job":"Engineer"},
  {"id":"2","first_name":"Bo","last_name":"Kim","gender":"M","job":""}
]`

type testEnv struct {
	home   string
	dbPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"ENDPOINT", "TOTAL_ITEMS", "TIMEOUT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "RESET_PAGE_ON"} {
		t.Setenv(config.EnvPrefix+key, "")
		require.NoError(t, os.Unsetenv(config.EnvPrefix+key))
	}
	return testEnv{home: home, dbPath: filepath.Join(home, "data", "tablo.db")}
}

// customersServer serves customersJSON and records the query of every request.
func customersServer(t *testing.T) (*httptest.Server, func() []url.Values) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Query())
		mu.Unlock()
		w.Header().Set("X-Total-Count", "42")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(customersJSON))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []url.Values {
		mu.Lock()
		defer mu.Unlock()
		return append([]url.Values(nil), calls...)
	}
}

func (e testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--db", e.dbPath, "--log-file", ""))
	err := root.Execute()
	return buf.String(), err
}

func TestPrint_Table(t *testing.T) {
	env := newTestEnv(t)
	srv, calls := customersServer(t)

	out, err := env.execute(t, "print", "--endpoint", srv.URL, "--query", "sortBy=last_name&page=2&itemsPerPage=25")
	require.NoError(t, err)

	assert.Contains(t, strings.ToLower(out), "first name")
	assert.Contains(t, out, "Engineer")
	assert.Contains(t, out, "—")
	assert.Contains(t, out, "(page 2/2 · 25 per page · 42 items)")

	require.Len(t, calls(), 1)
	got := calls()[0]
	assert.Equal(t, "2", got.Get("page"))
	assert.Equal(t, "25", got.Get("limit"))
	assert.Equal(t, "last_name", got.Get("sortBy"))
	assert.Equal(t, "asc", got.Get("order"))
}

func TestPrint_CSV(t *testing.T) {
	env := newTestEnv(t)
	srv, _ := customersServer(t)

	out, err := env.execute(t, "print", "--endpoint", srv.URL, "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,first name,last name,gender,job title", strings.ToLower(lines[0]))
	assert.Equal(t, "1,Ann,Lee,F,Engineer", lines[1])
	assert.Equal(t, "2,Bo,Kim,M,", lines[2])
}

func TestPrint_Markdown(t *testing.T) {
	env := newTestEnv(t)
	srv, _ := customersServer(t)

	out, err := env.execute(t, "print", "--endpoint", srv.URL, "--format", "markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "|"))
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "(page 1/5 · 10 per page · 42 items)")
}

func TestPrint_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.execute(t, "print", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestPrint_TooFewColumns(t *testing.T) {
	env := newTestEnv(t)
	srv, calls := customersServer(t)

	cfgFile := filepath.Join(env.home, "narrow.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`columns:
  - name: id
  - name: first_name
  - name: last_name
`), 0600))

	_, err := env.execute(t, "print", "--config", cfgFile, "--endpoint", srv.URL)
	assert.ErrorIs(t, err, table.ErrTooFewColumns)
	assert.Empty(t, calls())
}

func TestPrint_StatusError(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := env.execute(t, "print", "--endpoint", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "503")
}

func TestPrint_FromViewAndQueryPrecedence(t *testing.T) {
	env := newTestEnv(t)
	srv, calls := customersServer(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(env.dbPath), 0700))
	database, err := db.Open(env.dbPath)
	require.NoError(t, err)
	_, err = db.SaveView(context.Background(), database, "engineers", "search=engineer&sortBy=job&sortOrder=desc")
	require.NoError(t, err)
	require.NoError(t, database.Close())

	_, err = env.execute(t, "print", "--endpoint", srv.URL, "--view", "engineers")
	require.NoError(t, err)
	_, err = env.execute(t, "print", "--endpoint", srv.URL, "--view", "engineers", "--query", "search=ann")
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, "engineer", got[0].Get("search"))
	assert.Equal(t, "job", got[0].Get("sortBy"))
	assert.Equal(t, "desc", got[0].Get("order"))
	assert.Equal(t, "ann", got[1].Get("search"))
	assert.Equal(t, "", got[1].Get("sortBy"))

	_, err = env.execute(t, "print", "--endpoint", srv.URL, "--view", "missing")
	assert.ErrorIs(t, err, db.ErrViewNotFound)
}

func TestViews_ListAndRemove(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.execute(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved views.")

	database, err := db.Open(env.dbPath)
	require.NoError(t, err)
	_, err = db.SaveView(context.Background(), database, "engineers", "search=engineer")
	require.NoError(t, err)
	require.NoError(t, database.Close())

	out, err = env.execute(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "engineers")
	assert.Contains(t, out, "?search=engineer")
	assert.Contains(t, out, "Today")

	out, err = env.execute(t, "views", "rm", "engineers")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted view "engineers"`)

	_, err = env.execute(t, "views", "rm", "engineers")
	assert.ErrorIs(t, err, db.ErrViewNotFound)
}

func TestHistory_Limit(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No history yet.")

	database, err := db.Open(env.dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	for _, raw := range []string{"page=1", "page=2", "search=zed"} {
		require.NoError(t, db.RecordHistory(ctx, database, raw))
	}
	require.NoError(t, database.Close())

	out, err = env.execute(t, "history", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "?search=zed")
	assert.Contains(t, out, "?page=2")
	assert.NotContains(t, out, "?page=1")

	_, err = env.execute(t, "history", "--limit", "0")
	assert.Error(t, err)
}

func TestRoot_JSONLogFormat(t *testing.T) {
	env := newTestEnv(t)
	srv, _ := customersServer(t)
	logFile := filepath.Join(env.home, "tablo.log")

	root := NewRootCmd("test")
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"print", "--endpoint", srv.URL, "--db", env.dbPath,
		"--log-file", logFile, "--log-level", "debug", "--log-format", "json"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "{"), "want JSON lines, got %q", lines[0])
	assert.Contains(t, lines[0], `"msg":"fetch issued"`)
}

func TestRoot_InvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.execute(t, "history", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
