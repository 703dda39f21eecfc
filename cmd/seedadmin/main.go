package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yakoovad/hackathon-portal/internal/config"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// seedadmin creates the admin account or resets its password.
func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "admin123", "admin password")
	flag.Parse()

	log, err := logger.NewLogger("info", false)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.NewConfig(log)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = db.Migrate(ctx, pool); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	admin := service.NewAdminService(nil).WithAdminRepo(repository.NewPgxAdminRepository(pool))

	if serr := admin.SeedAdmin(ctx, *username, *password); serr != nil {
		log.Error("failed to seed admin", zap.String("code", string(serr.Code)), zap.String("message", serr.Message))
		pool.Close()
		os.Exit(1)
	}
}
