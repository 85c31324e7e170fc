package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/iliyamo/prompt-library/internal/config"
	"github.com/iliyamo/prompt-library/internal/database"
	"github.com/iliyamo/prompt-library/internal/logger"
	"github.com/iliyamo/prompt-library/internal/repository"
	"github.com/iliyamo/prompt-library/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	s := &seed.Seeder{
		Users:         repository.NewUserRepo(db),
		Categories:    repository.NewCategoryRepo(db),
		Prompts:       repository.NewPromptRepo(db),
		AdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		BcryptCost:    cfg.BcryptCost,
		Log:           log,
	}
	_, err = s.Run(ctx)
	return err
}
