// Package app assembles the views bot from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/m3rciful/viewsbot/core/bootstrap"
	"github.com/m3rciful/viewsbot/core/logger"
	tg "github.com/m3rciful/viewsbot/core/telegram"
	"github.com/m3rciful/viewsbot/core/telegram/router"
	"github.com/m3rciful/viewsbot/core/telegram/sender"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/internal/bot"
	"github.com/m3rciful/viewsbot/internal/keepalive"
	"github.com/m3rciful/viewsbot/internal/ledger"
	"github.com/m3rciful/viewsbot/internal/ledger/filestore"
	"github.com/m3rciful/viewsbot/internal/ledger/pgstore"
	"github.com/m3rciful/viewsbot/internal/orderapi"
)

const shutdownTimeout = 5 * time.Second

// App owns the long-lived components of the bot.
type App struct {
	cfg      *Config
	backend  ledger.Backend
	ledger   *ledger.Ledger
	bot      *bot.Bot
	registry *tg.Registry
	janitor  *cron.Cron
	http     *keepalive.Server
}

// Bootstrap initialises logging and, for the postgres backend, the migrated
// database, then wires the application.
func Bootstrap(cfg *Config) (*App, error) {
	opts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.Ledger.Backend == BackendPostgres {
		opts.Database = &cfg.Database
		opts.Migrations = pgstore.Migrations
		opts.MigrationsDir = pgstore.MigrationsDir
	}
	res, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB)
}

// New wires the application. db is required for the postgres backend and ignored otherwise.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	backend, err := openBackend(cfg, db)
	if err != nil {
		return nil, err
	}
	l := ledger.New(backend, ledger.Options{})

	sessions := state.NewMemoryManager()
	cooldown := bot.NewCooldown(cfg.AdsCooldown())
	b, err := bot.New(bot.Options{
		AdminID:  cfg.Telegram.AdminID,
		AdsURL:   cfg.Ads.URL,
		Ledger:   l,
		Pipeline: bot.NewOrderPipeline(orderapi.New(cfg.OrderAPI.URL, cfg.OrderAPITimeout()), l),
		Sessions: sessions,
		Cooldown: cooldown,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		_ = backend.Close()
		return nil, err
	}

	janitor, err := newJanitor(cfg.Session.JanitorSchedule, sessions, cfg.SessionTTL(), cooldown)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	if cfg.Telegram.AdminID == 0 {
		logger.L.With("component", "app").Warn("admin id not set, admin commands are disabled",
			slog.String("event", "config.admin"),
		)
	}

	return &App{
		cfg:      cfg,
		backend:  backend,
		ledger:   l,
		bot:      b,
		registry: reg,
		janitor:  janitor,
	}, nil
}

func openBackend(cfg *Config, db *sqlx.DB) (ledger.Backend, error) {
	switch cfg.Ledger.Backend {
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("app: postgres backend selected without a database")
		}
		return pgstore.New(db), nil
	default:
		store, err := filestore.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("app: open ledger file: %w", err)
		}
		return store, nil
	}
}

// TelegramRunOptions describes how the runtime should host the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	middlewares := tg.DefaultMiddlewares(core, nil)
	middlewares = append(middlewares, tg.Middleware{Name: "activity", Use: a.bot.ActivityMiddleware})

	var routes []tg.Route
	routes = append(routes, router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.bot.AdminReject,
	})...)
	routes = append(routes, router.TextRoutes(a.bot, a.registry, router.TextOptions{
		UnknownText:     a.bot.UnknownText(),
		UnknownDocument: a.bot.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: a.bot.UnknownCallback(),
	}))

	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: sender.Options{
			MaxRetries: 2,
		},
		Middlewares: middlewares,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, rt tg.Runtime) error {
	var handle string
	if rt.Bot != nil && rt.Bot.Me != nil {
		handle = rt.Bot.Me.Username
	}
	var api bot.Sender
	if rt.Bot != nil {
		api = rt.Bot
	}
	a.bot.Attach(api, handle, rt.Dispatcher)

	a.janitor.Start()

	if !a.cfg.KeepAlive.Disabled {
		a.http = keepalive.New(a.cfg.KeepAlive.Listen, rt.Mode)
		if err := a.http.Start(); err != nil {
			logger.HTTP.Warn("keep-alive not started",
				slog.String("event", "http.start"),
				slog.String("addr", a.cfg.KeepAlive.Listen),
				slog.String("err", err.Error()),
			)
			a.http = nil
		}
	}

	logger.L.With("component", "app").Info("bot wired",
		slog.String("event", "app.start"),
		slog.String("bot", handle),
		slog.String("ledger", a.cfg.Ledger.Backend),
		slog.String("mode", rt.Mode),
	)
	return nil
}

func (a *App) onStop(_ context.Context, _ tg.Runtime) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.http != nil {
		if err := a.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("keep-alive shutdown: %w", err))
		}
	}

	select {
	case <-a.janitor.Stop().Done():
	case <-ctx.Done():
	}

	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ledger close: %w", err))
	}
	return errors.Join(errs...)
}
