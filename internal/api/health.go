package api

import (
	"context"
	"log"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type HealthChecker interface {
	HealthCheck() echo.HandlerFunc
}

type healthChecker struct {
	health *health.Health
}

func MustNewHealthChecker(version string, checks ...health.Config) HealthChecker {
	h, _ := health.New(health.WithComponent(health.Component{Name: "hackathon-portal", Version: version}))

	for _, check := range checks {
		if err := h.Register(check); err != nil {
			log.Fatal("failed to register health check:", err)
		}
	}

	return &healthChecker{
		health: h,
	}
}

func (h *healthChecker) HealthCheck() echo.HandlerFunc {
	return echo.WrapHandler(h.health.Handler())
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) health.Config {
	return health.Config{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			return errors.Wrap(pool.Ping(ctx), "postgres ping")
		},
	}
}

// RedisCheck pings the OTP store backend.
func RedisCheck(client redis.UniversalClient) health.Config {
	return health.Config{
		Name:      "redis",
		SkipOnErr: true,
		Check: func(ctx context.Context) error {
			return errors.Wrap(client.Ping(ctx).Err(), "redis ping")
		},
	}
}
