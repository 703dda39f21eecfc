package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yakoovad/hackathon-portal/internal/api"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/config"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/notify"
	"github.com/yakoovad/hackathon-portal/internal/otp"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const (
	version         = "v0.1.0"
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	boot, err := logger.NewLogger("info", false)
	if err != nil {
		panic(err)
	}

	cfg, err := config.NewConfig(boot)
	if err != nil {
		boot.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, log); err != nil {
		log.Fatal("application stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	log.Info("starting application", zap.String("version", version))

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}

	if err = db.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	log.Info("database ready")

	checks := []health.Config{api.PostgresCheck(pool)}

	var store otp.Store
	switch cfg.OTP.Store {
	case config.OTPStoreRedis:
		client, err := otp.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return errors.Wrap(err, "connect to redis")
		}
		defer client.Close()

		store = otp.NewRedisStore(client)
		checks = append(checks, api.RedisCheck(client))
		log.Info("otp store: redis", zap.String("addr", cfg.Redis.Addr))
	default:
		mem := otp.NewMemoryStore()
		go mem.RunSweeper(ctx, sweepInterval)

		store = mem
		log.Info("otp store: memory")
	}

	var sender notify.Sender
	if cfg.SMTP.Host == "" {
		sender = notify.NewLogSender()
		log.Warn("SMTP_HOST is empty, outbound mail is only logged")
	} else {
		smtp, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
		if err != nil {
			return errors.Wrap(err, "configure smtp")
		}
		sender = smtp
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.AdminTokenTTL)
	transactor := db.NewPgxTransactor(pool)

	teamRepo := repository.NewPgxTeamRepository(pool)
	adminRepo := repository.NewPgxAdminRepository(pool)

	verify := service.NewVerificationService(store, cfg.OTP.TTL).
		WithTeamRepo(teamRepo).
		WithSender(sender).
		WithMetrics(recorder)
	team := service.NewTeamService(transactor).
		WithTeamRepo(teamRepo).
		WithIssuer(verify).
		WithValidator(model.NewValidator(cfg.EmailSuffix)).
		WithMetrics(recorder)
	admin := service.NewAdminService(tokens).
		WithAdminRepo(adminRepo).
		WithTeamRepo(teamRepo).
		WithSender(sender).
		WithMetrics(recorder)

	e := echo.New()
	e.HideBanner = true

	handler := api.NewHandler(log, tokens).
		WithTeamService(team).
		WithVerificationService(verify).
		WithAdminService(admin).
		WithEmailSuffix(cfg.EmailSuffix).
		WithHealthChecker(api.MustNewHealthChecker(version, checks...)).
		WithMetrics(recorder, registry)

	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return errors.Wrap(err, "serve http")
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http")
	}

	log.Info("server exited")
	return nil
}
