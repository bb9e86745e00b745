package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/hihikaAAa/duty-bot/internal/events"
	"github.com/hihikaAAa/duty-bot/internal/flow"
	"github.com/hihikaAAa/duty-bot/internal/health"
	"github.com/hihikaAAa/duty-bot/internal/lib"
	"github.com/hihikaAAa/duty-bot/internal/storage/sqlite"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	sessions := db.Sessions(cfg.SessionTTL)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = false

	opts := []flow.Option{
		flow.WithLogger(log),
		flow.WithLocation(loc),
		flow.WithStoreTimeout(cfg.StoreTimeout),
	}
	if cfg.AMQPURL != "" {
		pub, err := events.New(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, flow.WithPublisher(pub))
	}
	f := flow.New(sessions, db, lib.NewMessenger(api), opts...)

	sweeper := &lib.SessionSweeper{Store: sessions, TTL: cfg.SessionTTL, Interval: cfg.SweepInterval, Log: log}
	sweeper.Start()
	defer func() {
		if sweeper.Stop != nil {
			close(sweeper.Stop)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HealthAddr != "" {
		go func() {
			if err := health.Serve(ctx, cfg.HealthAddr, db); err != nil {
				log.Error("health server", slog.Any("err", err))
			}
		}()
	}

	log.Info("bot started", slog.String("username", api.Self.UserName), slog.String("config", cfgPath), slog.String("tz", loc.String()))
	return lib.NewBot(api, f, log).Start(ctx)
}
