package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"todolists/app"
	"todolists/config"
	"todolists/store"
)

type App struct {
	ConfigPath string
	Backend    string
	Dir        string

	cfg     *config.Config
	closers []io.Closer
}

func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *App) {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "todolists",
		Short:        "Multi-list to-do manager (TUI + scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  todolists

  # Scriptable commands
  todolists add buy milk
  todolists done 1
  todolists move 3 -- -1
  todolists lists new Groceries
  todolists show --all
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("TODOLISTS_CONFIG", ""), "Path to config file")
	cmd.PersistentFlags().StringVar(&a.Backend, "backend", "", "Storage backend (file|sqlite|redis|memory)")
	cmd.PersistentFlags().StringVar(&a.Dir, "dir", "", "Data directory for the file and sqlite backends")

	cmd.AddCommand(newListsCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newDoneCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newRmCmd(a))
	cmd.AddCommand(newMoveCmd(a))
	cmd.AddCommand(newReorderCmd(a))
	cmd.AddCommand(newLsCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	closeAfterRun(cmd, a)
	return cmd, a
}

// closeAfterRun wraps every RunE in the tree so opened providers are closed
// whether or not the command fails.
func closeAfterRun(cmd *cobra.Command, a *App) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if cerr := a.close(); err == nil {
				err = cerr
			}
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, a)
	}
}

// loadConfig applies command line overrides on top of the config file.
func (a *App) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	if a.Backend != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(a.Backend))
	}
	if a.Dir != "" {
		cfg.Storage.Dir = a.Dir
		cfg.Storage.SQLitePath = filepath.Join(a.Dir, "todolists.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// openStore loads the configured backend into a ListStore. Logs go to w.
func (a *App) openStore(ctx context.Context, w io.Writer) (*app.ListStore, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, w)

	provider, err := a.newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := app.Open(ctx, provider, app.WithLogger(logger.WithField("backend", cfg.Storage.Backend)))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) newProvider(ctx context.Context, cfg *config.Config) (store.Provider, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return store.NewFileProvider(cfg.Storage.Dir), nil
	case config.BackendSQLite:
		p, err := store.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		return p, nil
	case config.BackendRedis:
		client := redis.NewClient(redisOptions(cfg.Storage))
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Storage.RedisAddr, err)
		}
		p := store.NewRedisProvider(client, cfg.Storage.RedisPrefix)
		a.closers = append(a.closers, p)
		return p, nil
	case config.BackendMemory:
		return store.NewMemoryProvider(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(s config.Storage) *redis.Options {
	opts, err := redis.ParseURL(s.RedisAddr)
	if err != nil {
		opts = &redis.Options{Addr: s.RedisAddr}
	}
	if s.RedisDB != 0 {
		opts.DB = s.RedisDB
	}
	return opts
}

func (a *App) close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func newLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(cfg.LogLevel())
	return logger
}

// tuiLogWriter opens the configured log file, or <dir>/todolists.log.
func tuiLogWriter(cfg *config.Config) (*os.File, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(cfg.Storage.Dir, "todolists.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
