package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clinicdesk/backend/internal/config"
	"clinicdesk/backend/internal/service/scheduling"
	"clinicdesk/backend/internal/store/sqlite"
	"clinicdesk/backend/internal/transport/httpapi"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "clinicdesk-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "clinicdesk-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.HTTPAddr), slog.String("log_level", cfg.LogLevel))

	log.Info("opening database", slog.String("db_path", cfg.DatabasePath))
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("database open failed", slog.Any("err", err), slog.String("db_path", cfg.DatabasePath))
		os.Exit(1)
	}
	defer func() {
		if err := sqlite.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	engine := scheduling.NewEngine(
		sqlite.NewDirectoryRepo(db),
		sqlite.NewAppointmentRepo(db),
		scheduling.WithBusinessHours(scheduling.BusinessHours{
			OpenHour:  cfg.OpenHour,
			CloseHour: cfg.CloseHour,
		}),
	)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Appointments: httpapi.NewAppointmentsHandler(engine, log),
		DB:           db,
		Log:          log,
		Metrics:      httpapi.NewMetrics(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, srv, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, srv *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = srv.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
