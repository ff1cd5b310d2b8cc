// Package main - консольный клиент Pantheon UnderLiv.
//
// По умолчанию работает с локальной базой SQLite. С флагом --remote
// (или UNDERLIV_REMOTE_URL) все операции идут через REST API сервера.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pantheon-hub/underliv/config"
	"github.com/pantheon-hub/underliv/internal/application/query"
	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/internal/infrastructure/external/pantheon"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence"
	"github.com/pantheon-hub/underliv/pkg/logger"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cliEnv{out: os.Stdout, errOut: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cliEnv - внешние зависимости CLI. Тесты подменяют вывод, часы и генератор ID.
type cliEnv struct {
	out    io.Writer
	errOut io.Writer
	clock  timeutil.Clock
	newID  func() string
}

// cli хранит глобальные флаги и собирает коллекцию для команд.
type cli struct {
	env cliEnv

	remoteURL string
	user      string
	backend   string
	dbPath    string
	envFile   string
	asJSON    bool
	verbose   bool
}

func newRootCmd(env cliEnv) *cobra.Command {
	if env.clock == nil {
		env.clock = timeutil.SystemClock
	}
	c := &cli{env: env}

	root := &cobra.Command{
		Use:   "underliv",
		Short: "Track how many washes your underwear survives",
		Long: `underliv keeps a drawer of garments, counts their washes and
unlocks achievements at 10, 25, 50 and 75 washes.

Garments are stored locally in SQLite unless --remote points at an
UnderLiv server, in which case the server owns the data.`,
		SilenceUsage: true,
	}
	root.SetOut(env.out)
	root.SetErr(env.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.remoteURL, "remote", "", "UnderLiv server URL (overrides UNDERLIV_REMOTE_URL)")
	pf.StringVarP(&c.user, "user", "u", "", "user id (overrides UNDERLIV_USER)")
	pf.StringVar(&c.backend, "store", "", "local store: sqlite, memory, postgres, redis (overrides STORE_BACKEND)")
	pf.StringVar(&c.dbPath, "db", "", "SQLite database file (overrides SQLITE_PATH)")
	pf.StringVar(&c.envFile, "env-file", ".env", "dotenv file to load")
	pf.BoolVar(&c.asJSON, "json", false, "print JSON instead of tables")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.washCmd(),
		c.retireCmd(),
		c.deleteCmd(),
		c.leaderboardCmd(),
		c.achievementsCmd(),
	)
	return root
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return nil, err
	}
	if c.remoteURL != "" {
		cfg.Remote.BaseURL = c.remoteURL
	}
	if c.user != "" {
		cfg.Remote.UserID = c.user
	}
	if c.backend != "" {
		cfg.Store.Backend = config.StoreBackend(c.backend)
	}
	if c.dbPath != "" {
		cfg.SQLite.Path = c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) newLogger() *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Output = c.env.errOut
	opts.Format = logger.FormatConsole
	opts.Level = logger.LevelWarn
	opts.AddCaller = false
	if c.verbose {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).Named("underliv")
}

// run открывает коллекцию, выполняет fn и закрывает коллекцию.
// Сообщения об ошибках сохранения печатаются после fn.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, col collection) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	log := c.newLogger()
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	notices := &registry.Recorder{}
	col, err := c.open(ctx, cfg, log, notices)
	if err != nil {
		return err
	}
	defer func() {
		if err := col.Close(); err != nil {
			log.Warn("failed to close collection", logger.Err(err))
		}
	}()

	err = fn(ctx, col)
	printNotices(c.env.errOut, notices.Drain())
	return err
}

func (c *cli) open(ctx context.Context, cfg *config.Config, log *logger.Logger, notices registry.Notifier) (collection, error) {
	owner := garment.OwnerID(cfg.Remote.UserID)
	opts := []registry.Option{
		registry.WithClock(c.env.clock),
		registry.WithLogger(log),
		registry.WithNotifier(notices),
	}
	if c.env.newID != nil {
		opts = append(opts, registry.WithIDGenerator(c.env.newID))
	}

	if cfg.Remote.BaseURL != "" {
		rc := pantheon.DefaultClientConfig(cfg.Remote.BaseURL)
		rc.Timeout = cfg.Remote.Timeout
		rc.MaxAttempts = cfg.Remote.MaxRetries
		rc.RetryInitialDelay = cfg.Remote.RetryBaseDelay
		rc.Logger = log
		if cfg.Remote.BreakerEnabled {
			rc.Breaker = pantheon.NewBreaker(log)
		}
		client := pantheon.NewClient(rc)
		log.Debug("using remote backend", logger.String("url", cfg.Remote.BaseURL), logger.OwnerID(owner.String()))
		return &remoteCollection{
			remote: registry.NewRemote(owner, client, opts...),
			client: client,
		}, nil
	}

	store, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	reg := registry.New(owner, store, opts...)
	// Повреждённый снимок уже ушёл в Notifier, коллекция начинает пустой.
	if err := reg.Load(ctx); err != nil && !errors.Is(err, shared.ErrMalformedSnapshot) {
		_ = store.Close()
		return nil, err
	}

	return &localCollection{
		reg:   reg,
		store: store,
		board: query.NewGetLeaderboardHandler(store, cfg.Leaderboard.DefaultLimit, c.env.clock, log),
	}, nil
}
