package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/config"
	"github.com/mindmatters/mindmatters-api/internal/jobs"
	"github.com/mindmatters/mindmatters-api/internal/logging"
	"github.com/mindmatters/mindmatters-api/internal/mail"
	"github.com/mindmatters/mindmatters-api/internal/metrics"
	"github.com/mindmatters/mindmatters-api/internal/server"
	"github.com/mindmatters/mindmatters-api/internal/storage/postgres"
	"github.com/mindmatters/mindmatters-api/internal/storage/postgres/migrations"
)

const mailQueueSize = 100

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	store := postgres.NewStore(db)
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP_HOST not set; reset emails will be logged, not sent")
		sender = mail.NewLogSender(logger)
	}
	mailQueue := mail.NewQueue(sender, mailQueueSize, logger, collector)
	defer mailQueue.Close()

	authority, err := auth.NewAuthority(auth.Deps{
		Users:   store,
		Resets:  store,
		SignIns: store,
		Tokens:  auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL()),
		Hasher:  auth.NewBcryptHasher(cfg.BcryptCost),
		Mailer:  mailQueue,
		Metrics: collector,
		Logger:  logger,
		AppURL:  cfg.AppURL,
	})
	if err != nil {
		return err
	}

	if cfg.Admin.SeedEnabled() {
		if err := authority.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	sweeper := jobs.NewResetTokenSweeper(store, cfg.ResetSweepInterval, collector, logger)
	go sweeper.Start(ctx)

	srv := server.New(server.Deps{
		Config:    cfg,
		Store:     store,
		Authority: authority,
		Metrics:   collector,
		Gatherer:  reg,
		Logger:    logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("MindMatters API listening", slog.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
	return nil
}
