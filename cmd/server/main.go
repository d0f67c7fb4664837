package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/relay/internal/auth"
	"github.com/vedran77/relay/internal/config"
	"github.com/vedran77/relay/internal/database"
	"github.com/vedran77/relay/internal/logger"
	"github.com/vedran77/relay/internal/metrics"
	postgresrepo "github.com/vedran77/relay/internal/repository/postgres"
	"github.com/vedran77/relay/internal/service"
	"github.com/vedran77/relay/internal/transport/http/handlers"
	"github.com/vedran77/relay/internal/transport/http/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer pool.Close()
	log.Info().Msg("connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrating database")
		}
		log.Info().Msg("schema up to date")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	conversationRepo := postgresrepo.NewConversationRepo(pool)
	participantRepo := postgresrepo.NewParticipantRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	transactor := postgresrepo.NewTransactor(pool)

	// Services
	conversationService := service.NewConversationService(userRepo, participantRepo, transactor)
	conversationService.SetAllowSolo(cfg.AllowSoloConversations)

	messagingService := service.NewMessagingService(conversationRepo, participantRepo, messageRepo)
	messagingService.SetMaxContentLength(cfg.MaxMessageLength)

	// Handlers
	m := metrics.New()
	router := handlers.NewRouter(
		handlers.NewConversationHandler(conversationService, m),
		handlers.NewMessageHandler(messagingService, m),
		handlers.RouterConfig{
			Resolver:          auth.NewJWTResolver(cfg.JWTSecret, cfg.JWTAudience),
			Metrics:           m,
			Logger:            logger.Component(log, "http"),
			RequestTimeout:    cfg.RequestTimeout,
			CORSAllowedOrigin: cfg.CORSAllowedOrigin,
			SendLimiter:       middleware.NewRateLimiter(cfg.SendRatePerSecond, cfg.SendRateBurst),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	obs := metrics.NewServer(cfg.MetricsPort, m, pool.Ping, logger.Component(log, "metrics"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := obs.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(server.Shutdown(shutdownCtx), obs.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
