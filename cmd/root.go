package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tablo/internal/config"
	"tablo/internal/db"
	"tablo/internal/logging"
	"tablo/internal/source"
	"tablo/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// session holds what a command needs once configuration is resolved.
type session struct {
	cfg      *config.Config
	logger   *log.Logger
	db       *sql.DB
	closeLog func() error
}

func (s *session) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

type rootOptions struct {
	cfgFile  string
	rawQuery string
	viewName string
	version  string
	cfg      *config.Config
}

// NewRootCmd builds the tablo command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:   "tablo",
		Short: "Browse a paginated JSON collection in the terminal",
		Long: `tablo renders one page of a remote JSON collection as a table.

Sorting, search, page and page size live in a single query line
(search=ann&sortBy=job&sortOrder=asc&page=2&itemsPerPage=25) that can be
edited, shared, saved as a named view and restored from history.`,
		Example: `  tablo
  tablo --query 'search=engineer&sortBy=job'
  tablo --endpoint https://api.example.com/customers --view engineers`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env files are fine; existing environment wins.
			_ = godotenv.Load(".env")
			_ = godotenv.Load(".env.local")

			cfg, err := config.Load(opts.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default: ~/.tablo/config.yaml)")
	pf.String("endpoint", "", "collection endpoint URL")
	pf.Int("total-items", 0, "collection size to assume when responses do not report one")
	pf.Duration("timeout", 0, "request timeout (default 10s)")
	pf.String("db", "", "path to SQLite database file (default: ~/.tablo/tablo.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json")
	pf.String("log-file", "", "log file (default: ~/.tablo/tablo.log)")
	pf.StringVarP(&opts.rawQuery, "query", "q", "", "initial query line, e.g. 'search=ann&page=2'")
	pf.StringVar(&opts.viewName, "view", "", "start from a saved view")

	root.AddCommand(newPrintCmd(opts))
	root.AddCommand(newViewsCmd(opts))
	root.AddCommand(newHistoryCmd(opts))

	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runInteractive(cmd *cobra.Command, opts *rootOptions) error {
	s, err := openSession(opts.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	initial, err := initialQuery(ctx, cmd, s.db, opts, true)
	if err != nil {
		return err
	}

	client, err := newClient(s.cfg, opts.version)
	if err != nil {
		return err
	}
	policy, err := s.cfg.ResetPolicy()
	if err != nil {
		return err
	}

	s.logger.Info("starting", "endpoint", s.cfg.Endpoint, "query", initial, "config", s.cfg.Source)

	m := ui.New(ui.Config{
		Columns:       s.cfg.Columns,
		InitialQuery:  initial,
		Fetcher:       client,
		DB:            s.db,
		Logger:        s.logger,
		ResetPolicy:   &policy,
		FallbackTotal: s.cfg.TotalItems,
		Endpoint:      s.cfg.Endpoint,
		PrefsPath:     s.cfg.PrefsPath,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

func openSession(cfg *config.Config) (*session, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	logger, closeLog, err := logging.Open(logging.Config{
		File:  cfg.LogFile,
		Level: cfg.LogLevel,
		JSON:  cfg.LogFormat == "json",
	})
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, closeLog: closeLog}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.db = database
	return s, nil
}

// initialQuery picks the starting query line: --query when given, then
// --view, then (when fromHistory is set) the last recorded query.
func initialQuery(ctx context.Context, cmd *cobra.Command, database *sql.DB, opts *rootOptions, fromHistory bool) (string, error) {
	if cmd.Flags().Changed("query") {
		return opts.rawQuery, nil
	}
	if opts.viewName != "" {
		view, err := db.GetView(ctx, database, opts.viewName)
		if err != nil {
			return "", fmt.Errorf("view %q: %w", opts.viewName, err)
		}
		return view.RawQuery, nil
	}
	if !fromHistory {
		return "", nil
	}
	return db.LastQuery(ctx, database)
}

func newClient(cfg *config.Config, version string) (*source.Client, error) {
	return source.NewClient(cfg.Endpoint,
		source.WithTimeout(cfg.Timeout),
		source.WithUserAgent("tablo/"+version),
	)
}
