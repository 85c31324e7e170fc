package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/config"
	"github.com/iliyamo/prompt-library/internal/database"
	"github.com/iliyamo/prompt-library/internal/handler"
	"github.com/iliyamo/prompt-library/internal/logger"
	"github.com/iliyamo/prompt-library/internal/middleware"
	"github.com/iliyamo/prompt-library/internal/policy"
	"github.com/iliyamo/prompt-library/internal/queue"
	"github.com/iliyamo/prompt-library/internal/repository"
	"github.com/iliyamo/prompt-library/internal/router"
	"github.com/iliyamo/prompt-library/internal/service"
	"github.com/iliyamo/prompt-library/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Warn("redis unavailable; cache and rate limit disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL, log)
	}
	if cfg.AuditConsumerEnabled {
		consumer := &queue.AuditConsumer{URL: cfg.AMQPURL, LogPath: cfg.AuditLogPath, Log: log.Named("audit")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := utils.NewTokenService(cfg.JWTSecret)
	invalidator := middleware.NewCacheInvalidator(cacheCfg, rdb, log)

	e := router.New(router.Deps{
		Auth:       handler.NewAuthHandler(users, tokens, events, cfg.BcryptCost, log),
		Categories: handler.NewCategoryHandler(repository.NewCategoryRepo(db), log),
		Prompts: handler.NewPromptHandler(
			repository.NewPromptRepo(db),
			policy.ContentPolicy{FreeRequiresAuth: cfg.FreePromptsRequireAuth},
			events, invalidator, log,
		),
		Tokens:                tokens,
		Users:                 users,
		Cache:                 middleware.NewRedisCache(cacheCfg, rdb),
		RateLimit:             middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		AllowedOrigins:        cfg.AllowedOrigins,
		AllowedOriginPatterns: cfg.AllowedOriginPatterns,
		Log:                   log,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := service.Drain(shutdownCtx); err != nil {
		log.Warn("pending events not delivered before shutdown", zap.Error(err))
	}
	return nil
}
