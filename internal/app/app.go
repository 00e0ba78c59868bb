package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-guard-bot/internal/config"
	"group-guard-bot/internal/handler"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/scheduler"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
	"group-guard-bot/internal/transport/polling"
	"group-guard-bot/internal/transport/webhook"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, cfg.TelegramAPIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		bot:    bot,
	}, nil
}

// stores bundles the repositories of one storage backend.
type stores struct {
	settings repository.SettingsRepository
	warns    repository.WarnRepository
	stats    repository.StatsRepository
	close    func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverMongo {
		store, err := repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.DefaultWebsiteLink)
		if err != nil {
			return nil, err
		}
		return &stores{settings: store, warns: store, stats: store, close: store.Close}, nil
	}

	driver := repository.DriverPostgres
	if cfg.StoreDriver == config.DriverSQLite {
		driver = repository.DriverSQLite
	}
	db, err := repository.NewDB(repository.DBOptions{
		Driver:  driver,
		DSN:     cfg.GetDSN(),
		Tracing: cfg.DBTracing,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	settings := repository.NewSettingsRepository(db, repository.SettingsOptions{
		DefaultWebsiteLink: cfg.DefaultWebsiteLink,
		EnableCache:        cfg.EnableCache,
		CacheTTL:           cfg.CacheTTL,
	})
	return &stores{
		settings: settings,
		warns:    repository.NewWarnRepository(db, settings.Invalidate),
		stats:    repository.NewStatsRepository(db),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting Group Guard Bot", "username", a.bot.Self.UserName, "id", a.bot.Self.ID, "store", a.cfg.StoreDriver)

	st, err := openStores(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			a.logger.Error("Failed to close store", "error", err)
		}
	}()

	plat := platform.NewTelegram(a.bot, a.logger, time.Minute)
	sched := scheduler.New(ctx, a.logger)
	sessions := session.NewStore(a.cfg.SessionTTL)
	authz := moderation.NewAuthorizer(a.cfg.OwnerIDs, a.cfg.AuthorizedChats)
	if len(a.cfg.AuthorizedChats) == 0 {
		a.logger.Warn("AUTHORIZED_CHATS is empty, moderating every group the bot is in")
	}

	svc := service.NewModerationService(a.logger, st.settings, st.warns, st.stats, plat, sched, authz, service.Options{
		WarnLimit:    a.cfg.WarnLimit,
		MuteDuration: a.cfg.MuteDuration,
		NoticeTTL:    a.cfg.NoticeTTL,
		FloodLimit:   a.cfg.FloodLimit,
		FloodWindow:  a.cfg.FloodWindow,
	})
	svc.StartMaintenance(ctx)

	h := handler.NewHandler(a.logger, svc, plat, sessions, handler.Options{
		WarnLimit:    a.cfg.WarnLimit,
		MuteDuration: a.cfg.MuteDuration,
		BotUserName:  a.bot.Self.UserName,
	})

	a.startGaugeUpdater(ctx, sessions, sched)

	metricsSrv := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.Listen(ctx); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	var updates <-chan tgbotapi.Update
	if a.cfg.WebhookHost != "" {
		a.logger.Info("Starting in Webhook mode", "host", a.cfg.WebhookHost)
		srv := webhook.NewServer(a.logger, a.bot, a.cfg.WebhookHost, a.cfg.Port)

		var cleanup func() error
		updates, cleanup, err = srv.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start webhook server: %w", err)
		}
		defer func() {
			if err := cleanup(); err != nil {
				a.logger.Error("Cleanup failed", "error", err)
			}
		}()
	} else {
		a.logger.Info("Starting in Long Polling mode")
		if _, err := a.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			a.logger.Warn("Failed to delete webhook", "error", err)
		}
		updates = polling.NewPoller(a.logger, a.bot).Start(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down...")
			sched.Wait()
			return nil
		case upd, ok := <-updates:
			if !ok {
				a.logger.Info("Update channel closed")
				sched.Wait()
				return nil
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) startGaugeUpdater(ctx context.Context, sessions *session.Store, sched *scheduler.Scheduler) {
	ticker := time.NewTicker(15 * time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetActiveSessions(float64(sessions.Len()))
				metrics.SetPendingDeletions(float64(sched.Pending()))
			}
		}
	}()
}
