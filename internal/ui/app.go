package ui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"tablo/internal/db"
	"tablo/internal/model"
	"tablo/internal/query"
	"tablo/internal/source"
	"tablo/internal/table"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const tooFewColumnsMessage = "Should have at least 4 columns"

// Config wires the root model to its collaborators.
type Config struct {
	Columns      []model.Column
	InitialQuery string
	Fetcher      source.Fetcher
	// DB persists history and saved views. Nil disables both.
	DB            *sql.DB
	Logger        *log.Logger
	ResetPolicy   *query.ResetPolicy
	FallbackTotal int
	Endpoint      string
	PrefsPath     string
}

// fetchState is shared by every copy of Model so that a newer request can
// cancel the one in flight.
type fetchState struct {
	cancel context.CancelFunc
}

func (f *fetchState) stop() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg       Config
	logger    *log.Logger
	store     *query.Store
	table     *table.Controller
	configErr error
	nav       *navigator
	history   *historyRecorder
	fetch     *fetchState
	grid      *GridModel
	spinner   spinner.Model
	input     textinput.Model

	mode   model.Mode
	gState GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool

	keys      KeyMap
	inputKeys InputKeyMap
	prefs     UIPreferences
}

// New creates the root model. A column set the controller refuses is kept
// as a configuration error and rendered in place of the grid.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	nav := newNavigator("")
	store := query.NewStore(cfg.InitialQuery, nav.visit)
	nav.current = store.Raw()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 512

	m := Model{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		nav:       nav,
		history:   newHistoryRecorder(cfg.DB),
		fetch:     &fetchState{},
		grid:      &GridModel{},
		spinner:   sp,
		input:     in,
		mode:      model.ModeNav,
		gState:    GStateIdle,
		keys:      DefaultKeyMap(),
		inputKeys: DefaultInputKeyMap(),
		prefs:     loadUIPreferences(cfg.PrefsPath),
	}

	opts := []table.Option{
		table.WithFallbackTotal(cfg.FallbackTotal),
		table.WithLogger(logger),
	}
	if cfg.ResetPolicy != nil {
		opts = append(opts, table.WithResetPolicy(*cfg.ResetPolicy))
	}
	ctrl, err := table.New(cfg.Columns, store, opts...)
	if err != nil {
		logger.Error("table not started", "columns", len(cfg.Columns), "err", err)
		m.configErr = err
		return m
	}
	m.table = ctrl

	if p, ok := m.prefs.Tables[cfg.Endpoint]; ok {
		for i, col := range cfg.Columns {
			if col.Name == p.ActiveColumn {
				m.grid.SetActiveColumn(i, len(cfg.Columns))
				break
			}
		}
	}
	return m
}

// Init issues the first fetch.
func (m Model) Init() tea.Cmd {
	if m.table == nil {
		return nil
	}
	return tea.Batch(
		m.fetchCmd(m.table.Start()),
		m.spinner.Tick,
		m.history.record(m.store.Raw(), m.store.Version()),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle ctrl+c globally
		if msg.String() == "ctrl+c" {
			m.fetch.stop()
			return m, tea.Quit
		}

		if m.table == nil {
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" || key.Matches(msg, m.keys.Help) {
				m.showingHelp = false
			}
			return m, nil
		}

		version := m.store.Version()
		var cmd tea.Cmd
		if m.mode == model.ModeNav {
			m, cmd = m.handleNavMode(msg)
		} else {
			m, cmd = m.handleInputMode(msg)
		}
		if m.store.Version() != version {
			cmd = tea.Batch(cmd, m.history.record(m.store.Raw(), m.store.Version()))
		}
		return m, cmd

	case model.PageLoadedMsg:
		if m.table == nil || !m.table.Resolve(msg.Seq, msg.Page, msg.Err) {
			return m, nil
		}
		m.fetch.stop()
		m.grid.Clamp(len(m.table.Items()))
		if msg.Err != nil {
			m.error = msg.Err.Error()
		} else {
			m.error = ""
		}
		return m, nil

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil

	case model.ViewSavedMsg:
		m.info = fmt.Sprintf("Saved view %q", msg.View.Name)
		m.logger.Info("view saved", "name", msg.View.Name, "query", msg.View.RawQuery)
		return m, nil

	case model.ClipboardCopiedMsg:
		m.info = "Copied: " + msg.Text
		return m, nil

	case model.HistoryRecordedMsg:
		if msg.Err != nil {
			m.logger.Warn("failed to record history", "query", msg.RawQuery, "err", msg.Err)
			m.error = "history not saved: " + msg.Err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other input messages
	if m.mode != model.ModeNav {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	top := []string{
		renderHeader(m.breadcrumb(), m.statusText(), m.width),
		m.renderQueryLine(),
		m.renderInputLine(),
	}
	if m.error != "" {
		top = append(top, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		top = append(top, SuccessStyle.Width(m.width).Render(m.info))
	}
	topBlock := lipgloss.JoinVertical(lipgloss.Left, top...)
	footer := RenderHelp(m.mode, m.width)

	contentHeight := max(3, m.height-lipgloss.Height(topBlock)-lipgloss.Height(footer))

	var content string
	if m.table == nil {
		content = EmptyStateStyle.Render(configErrorText(m.configErr))
	} else {
		content = m.grid.View(m.table.Snapshot(), m.width, contentHeight)
	}

	// Ensure content fills the available height to anchor footer at bottom
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, topBlock, content, footer)
}

func configErrorText(err error) string {
	if errors.Is(err, table.ErrTooFewColumns) {
		return tooFewColumnsMessage
	}
	return fmt.Sprintf("Configuration error: %v", err)
}

func (m Model) breadcrumb() []string {
	u, err := url.Parse(m.cfg.Endpoint)
	if err != nil || u.Host == "" {
		if m.cfg.Endpoint == "" {
			return nil
		}
		return []string{m.cfg.Endpoint}
	}
	parts := []string{u.Host}
	if p := strings.Trim(u.Path, "/"); p != "" {
		parts = append(parts, p)
	}
	return parts
}

func (m Model) statusText() string {
	if m.table == nil {
		return "config error"
	}
	switch m.table.Status() {
	case table.StatusLoading:
		return m.spinner.View() + " loading"
	case table.StatusError:
		return "error"
	default:
		return "ready"
	}
}

func renderHeader(breadcrumbParts []string, status string, width int) string {
	// Left side: app name + breadcrumb
	title := HeaderStyle.Render("tablo")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb
	right := BreadcrumbStyle.Render(status) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))

	headerContent := left + strings.Repeat(" ", padding) + right
	return TitleStyle.Width(width).Render(headerContent)
}

func (m Model) renderQueryLine() string {
	if m.mode == model.ModeQuery {
		return QueryLineStyle.Width(m.width).Render(LabelStyle.Render("?") + m.input.View())
	}
	raw := ""
	if m.table != nil {
		raw = m.table.RawQuery()
	}
	return QueryLineStyle.Width(m.width).Render("?" + raw)
}

func (m Model) renderInputLine() string {
	switch m.mode {
	case model.ModeSearch:
		return StatusBarStyle.Render(LabelStyle.Render("Search: ") + m.input.View())
	case model.ModeSaveView:
		return StatusBarStyle.Render(LabelStyle.Render("Save view as: ") + m.input.View())
	}
	search := ""
	if m.table != nil {
		search = m.table.Options().Search
	}
	if search == "" {
		return StatusBarStyle.Render(HelpDescStyle.Render("Search..."))
	}
	return StatusBarStyle.Render(LabelStyle.Render("Search: ") + search)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		m.grid.JumpToTop()
		return m, nil
	}
	m.gState = GStateIdle

	rows := len(m.table.Items())
	columns := m.table.Columns()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.fetch.stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showingHelp = true
		return m, nil
	case msg.String() == "esc":
		m.info = ""
		m.error = ""
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.grid.MoveDown(rows)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.grid.MoveUp()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.grid.JumpToBottom(rows)
		return m, nil
	case key.Matches(msg, m.keys.ToggleRow):
		pos := m.grid.Cursor()
		if !m.table.ToggleRowSelected(pos, !m.table.IsSelected(pos)) {
			m.info = "No row to select"
		}
		return m, nil
	case key.Matches(msg, m.keys.NextColumn):
		m.grid.NextColumn(len(columns))
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.PrevColumn):
		m.grid.PrevColumn(len(columns))
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.Sort):
		col := columns[m.grid.ActiveColumn()]
		req, ok := m.table.ToggleSort(col.Name)
		if !ok {
			return m, nil
		}
		order := "ascending"
		if req.Options.SortOrder == query.SortDesc {
			order = "descending"
		}
		m.info = fmt.Sprintf("Sorted %s %s", formatHeaderLabel(col.Title()), order)
		return m, m.fetchCmd(req)
	case key.Matches(msg, m.keys.Search):
		return m, m.startInput(model.ModeSearch, m.table.Options().Search, "type to filter")
	case key.Matches(msg, m.keys.QueryLine):
		return m, m.startInput(model.ModeQuery, m.table.RawQuery(), "search=...&page=1")
	case key.Matches(msg, m.keys.PrevPage):
		req, ok := m.table.PrevPage()
		return m.issue(req, ok, "No previous page")
	case key.Matches(msg, m.keys.NextPage):
		req, ok := m.table.NextPage()
		return m.issue(req, ok, "No next page")
	case key.Matches(msg, m.keys.PageSize):
		next := m.table.Options().ItemsPerPage.Next()
		req, ok := m.table.ChangeItemsPerPage(next)
		if ok {
			m.info = fmt.Sprintf("%d per page", int(next))
		}
		return m.issue(req, ok, "")
	case key.Matches(msg, m.keys.Retry):
		req, ok := m.table.Retry()
		return m.issue(req, ok, "Already loading")
	case key.Matches(msg, m.keys.HistoryBack):
		return m.navigate(true)
	case key.Matches(msg, m.keys.HistoryFwd):
		return m.navigate(false)
	case key.Matches(msg, m.keys.Share):
		return m, copyShareCmd(ShareCommand(m.cfg.Endpoint, m.table.RawQuery()))
	case key.Matches(msg, m.keys.SaveView):
		if m.cfg.DB == nil {
			m.error = "saved views are unavailable without a database"
			return m, nil
		}
		return m, m.startInput(model.ModeSaveView, "", "view name")
	}
	return m, nil
}

// handleInputMode handles keys while the search, query or save prompt is
// focused. Search applies on every keystroke; the others on enter.
func (m Model) handleInputMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.inputKeys.Cancel):
		m.stopInput()
		return m, nil
	case key.Matches(msg, m.inputKeys.Submit):
		value := m.input.Value()
		mode := m.mode
		m.stopInput()
		switch mode {
		case model.ModeQuery:
			req, ok := m.table.Navigate(value)
			return m.issue(req, ok, "")
		case model.ModeSaveView:
			name := strings.TrimSpace(value)
			if name == "" {
				m.error = "view name is required"
				return m, nil
			}
			return m, saveViewCmd(m.cfg.DB, name, m.table.RawQuery())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == model.ModeSearch {
		if req, ok := m.table.UpdateSearch(m.input.Value()); ok {
			return m, tea.Batch(cmd, m.fetchCmd(req))
		}
	}
	return m, cmd
}

func (m *Model) startInput(mode model.Mode, value, placeholder string) tea.Cmd {
	m.mode = mode
	m.info = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = model.ModeNav
	m.input.Blur()
	m.input.Reset()
}

// issue starts req when the controller accepted the change, otherwise shows
// refused as a hint.
func (m Model) issue(req table.Request, ok bool, refused string) (Model, tea.Cmd) {
	if !ok {
		if refused != "" {
			m.info = refused
		}
		return m, nil
	}
	return m, m.fetchCmd(req)
}

func (m Model) navigate(backward bool) (Model, tea.Cmd) {
	if backward && !m.nav.canBack() {
		m.info = "No earlier query"
		return m, nil
	}
	if !backward && !m.nav.canForward() {
		m.info = "No later query"
		return m, nil
	}
	var (
		req    table.Request
		issued bool
	)
	m.nav.step(backward, func(raw string) {
		req, issued = m.table.Navigate(raw)
	})
	m.info = "?" + m.table.RawQuery()
	return m.issue(req, issued, "")
}

func (m *Model) persistPrefs() {
	columns := m.table.Columns()
	m.prefs.Tables[m.cfg.Endpoint] = TablePrefs{ActiveColumn: columns[m.grid.ActiveColumn()].Name}
	if err := saveUIPreferences(m.cfg.PrefsPath, m.prefs); err != nil {
		m.logger.Warn("failed to save preferences", "err", err)
	}
}

// Commands

// fetchCmd cancels the request in flight and runs req.
func (m Model) fetchCmd(req table.Request) tea.Cmd {
	m.fetch.stop()
	fetcher := m.cfg.Fetcher
	if fetcher == nil {
		return func() tea.Msg {
			return model.PageLoadedMsg{Seq: req.Seq, Err: errors.New("no data source configured")}
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.fetch.cancel = cancel
	return func() tea.Msg {
		page, err := fetcher.Fetch(ctx, req.Options)
		return model.PageLoadedMsg{Seq: req.Seq, Page: page, Err: err}
	}
}

func saveViewCmd(database *sql.DB, name, raw string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		view, err := db.SaveView(ctx, database, name, raw)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to save view: %w", err)}
		}
		return model.ViewSavedMsg{View: view}
	}
}
