// Package main contains the entrypoint for the Wallu Telegram relay bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/wallubot/wallu-telegram/internal/admission"
	"github.com/wallubot/wallu-telegram/internal/bot"
	"github.com/wallubot/wallu-telegram/internal/bot/handlers"
	"github.com/wallubot/wallu-telegram/internal/bot/tasks"
	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/credentials"
	"github.com/wallubot/wallu-telegram/internal/database"
	"github.com/wallubot/wallu-telegram/internal/logger"
	"github.com/wallubot/wallu-telegram/internal/relay"
	"github.com/wallubot/wallu-telegram/internal/secrets"
	"github.com/wallubot/wallu-telegram/internal/setup"
	"github.com/wallubot/wallu-telegram/internal/telegram"
	"github.com/wallubot/wallu-telegram/internal/telegram/platform"
	"github.com/wallubot/wallu-telegram/internal/wallu"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		exitCode = 1
	}
	stop()
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "wallu-telegram",
		Short:         "Relay Telegram chats to the Wallu support assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to configuration file (optional)")

	cmd.AddCommand(newMigrateCmd(&configPath))
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				slog.Error("Failed to load configuration", "path", *configPath, "error", err)
				return err
			}
			log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)

			db, err := database.NewDB(cfg.Database.Path)
			if err != nil {
				log.Error("Failed to migrate database", "path", cfg.Database.Path, "error", err)
				return err
			}
			database.CloseDB(db)
			log.Info("Database is up to date", "path", cfg.Database.Path)
			return nil
		},
	}
}

// run initializes all application components (config, logger, db, wallu client,
// telegram bot, scheduler), blocks until ctx ends and shuts everything down.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	cipher, err := secrets.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Error("Failed to initialize encryption", "error", err)
		return err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Database is not reachable", "path", cfg.Database.Path, "error", err)
		return err
	}

	creds, err := credentials.NewStore(store, cipher, log)
	if err != nil {
		log.Error("Failed to initialize credential store", "error", err)
		return err
	}

	sessions := setup.NewRegistry()
	adapter := platform.New()
	dispatcher := relay.NewDispatcher(relay.Deps{
		Platform:    adapter,
		Credentials: creds,
		Upstream:    wallu.NewClient(cfg.Wallu, log),
		Sessions:    sessions,
		Messages:    cfg.Messages,
		Logger:      log,
	})

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Dispatcher: dispatcher,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Setup:  dispatcher.Machine(),
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Recover(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return err
	}
	adapter.Bind(tg)

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return err
	}
	dispatcher.SetIdentity(admission.Identity{ID: me.ID, Username: me.Username})
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}
	if err := telegram.SetCommands(ctx, tg, log, cfg.Telegram.Commands); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}
	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return runErr
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return nil
}
