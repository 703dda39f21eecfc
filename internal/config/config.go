package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	OTPStoreMemory = "memory"
	OTPStoreRedis  = "redis"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	TokenSecret   string        `env:"TOKEN_AUTH_SECRET,required,notEmpty"`
	AdminTokenTTL time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`

	EmailSuffix string `env:"INSTITUTIONAL_EMAIL_SUFFIX" envDefault:"@vitapstudent.ac.in"`

	OTP   OTPConfig
	Redis RedisConfig
	SMTP  SMTPConfig

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

type OTPConfig struct {
	Store string        `env:"OTP_STORE" envDefault:"memory"`
	TTL   time.Duration `env:"OTP_TTL" envDefault:"10m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// SMTPConfig configures outbound mail. An empty Host disables delivery and
// messages are only logged.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT" envDefault:"587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
}

// NewConfig loads .env (if present) and parses the environment.
func NewConfig(logger *zap.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("could not load .env file", zap.Error(err))
	}

	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse env")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.OTP.Store {
	case OTPStoreMemory, OTPStoreRedis:
	default:
		return errors.Errorf("unsupported OTP_STORE %q", c.OTP.Store)
	}

	if c.OTP.TTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	if c.AdminTokenTTL <= 0 {
		return errors.New("ADMIN_TOKEN_TTL must be positive")
	}
	if !strings.HasPrefix(c.EmailSuffix, "@") {
		return errors.New("INSTITUTIONAL_EMAIL_SUFFIX must start with @")
	}

	return nil
}
