package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"inhouse-lobby-bot/internal/config"
	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/gc"
	"inhouse-lobby-bot/internal/repository/cache"
	"inhouse-lobby-bot/internal/repository/postgres"
	"inhouse-lobby-bot/internal/server"
	"inhouse-lobby-bot/internal/session"
	"inhouse-lobby-bot/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logrus.New()
	logger.Info("Starting lobby bot")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	if err := configureLogger(logger, cfg); err != nil {
		logger.WithError(err).Fatal("Failed to configure logger")
	}

	creds, err := cfg.ParsedCredentials()
	if err != nil {
		logger.WithError(err).Fatal("Invalid bot credentials")
	}
	logger.WithField("bots", len(creds)).Info("Configuration loaded")

	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := runMigrations(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	jobRepo := postgres.NewJobRepo(db)
	vipRepo := postgres.NewVIPRepo(db)
	flagStore := cache.NewFlagStore(postgres.NewFlagRepo(db), cfg.FlagCacheTTL)

	timings := sessionTimings(cfg.Timings)
	factory := func(job domain.Job, cred domain.Credential, vips domain.VIPSet, reporter session.EndReporter) worker.Runner {
		clientLogger := logger.WithFields(logrus.Fields{"job_id": job.ID, "bot": cred.Login})
		return session.New(session.Params{
			Job:          job,
			Credential:   cred,
			VIPs:         vips,
			ServerRegion: cfg.Lobby.ServerRegion,
			GameMode:     cfg.Lobby.GameMode,
			Timings:      timings,
		}, session.Deps{
			Client:   gc.NewSteamClient(clientLogger),
			Jobs:     jobRepo,
			Reporter: reporter,
			Logger:   logger,
		})
	}

	manager := worker.NewManager(jobRepo, vipRepo, flagStore, creds, factory, cfg.PollInterval, logger)
	srv := server.New(cfg.HTTPAddr, manager, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	managerDone := make(chan struct{})
	go func() {
		defer close(managerDone)
		manager.Start(ctx)
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Operator server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received, stopping sessions")

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	select {
	case <-managerDone:
	case <-stopCtx.Done():
		logger.Warn("Sessions did not stop in time")
	}
	if err := srv.Stop(stopCtx); err != nil {
		logger.WithError(err).Warn("Operator server did not stop cleanly")
	}

	logger.Info("Lobby bot stopped")
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if cfg.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func sessionTimings(t config.TimingConfig) session.Timings {
	return session.Timings{
		TotalBudget:        t.TotalBudget,
		ReadyReserve:       t.ReadyReserve,
		WaitTick:           t.WaitTick,
		PickWindow:         t.PickWindow,
		PickTick:           t.PickTick,
		SettleDelay:        t.SettleDelay,
		ConnectRetryDelay:  t.ConnectRetryDelay,
		ConnectMaxAttempts: t.ConnectMaxAttempts,
		LaunchTimeout:      t.LaunchTimeout,
		LaunchAttempts:     t.LaunchAttempts,
		OutcomeGrace:       t.OutcomeGrace,
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger logrus.FieldLogger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.WithError(err).WithField("attempt", i+1).Warn("Failed to open database connection")
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.WithError(err).WithField("attempt", i+1).Warn("Failed to ping database")
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending schema migrations from ./migrations
func runMigrations(db *sql.DB, logger logrus.FieldLogger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}
	return nil
}
