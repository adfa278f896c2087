// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/config"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/database"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/handler"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/notify"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/repository"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	log.Info().Msg("connected to PostgreSQL")

	if err := database.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	events, closeEvents := newPublisher(cfg, log)
	defer closeEvents()

	engine := service.NewEngine(service.Deps{
		Store:  repository.NewStore(pool),
		Events: events,
		Logger: log,
	},
		service.WithHoldDuration(cfg.HoldDuration),
		service.WithReservationDays(cfg.ReservationDays),
	)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(handler.CORS(cfg.CORSOrigins))

	handler.New(handler.FromEngine(engine)).Routes(r)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("service", "rifas").Logger()
}

// newPublisher fans events out to every configured sink. Sinks that fail to
// start are logged and skipped.
func newPublisher(cfg config.Config, log zerolog.Logger) (service.EventPublisher, func()) {
	var (
		sinks   notify.Fanout
		closers []func()
	)
	closer := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.NATSURL != "" {
		nc, err := notify.DialNATS(cfg.NATSURL)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, events not streamed")
		} else {
			sinks = append(sinks, nc)
			closers = append(closers, nc.Close)
			log.Info().Str("url", cfg.NATSURL).Msg("publishing events to NATS")
		}
	}

	if cfg.TelegramToken != "" && cfg.TelegramAdminChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramAdminChatID, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, admin notifications disabled")
		} else {
			sinks = append(sinks, tg)
			closers = append(closers, tg.Close)
		}
	}

	if len(sinks) == 0 {
		return service.NopPublisher{}, closer
	}
	return sinks, closer
}
