package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectError bool
		check       func(t *testing.T, cfg Config)
	}{
		{
			name: "success: defaults",
			env: map[string]string{
				"DATABASE_URL":      "postgres://localhost/hackathon",
				"TOKEN_AUTH_SECRET": "secret",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, ":8080", cfg.HTTPAddr)
				assert.Equal(t, 24*time.Hour, cfg.AdminTokenTTL)
				assert.Equal(t, "@vitapstudent.ac.in", cfg.EmailSuffix)
				assert.Equal(t, OTPStoreMemory, cfg.OTP.Store)
				assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
				assert.Equal(t, 587, cfg.SMTP.Port)
				assert.Empty(t, cfg.SMTP.Host)
			},
		},
		{
			name: "success: smtp from falls back to username",
			env: map[string]string{
				"DATABASE_URL":      "postgres://localhost/hackathon",
				"TOKEN_AUTH_SECRET": "secret",
				"SMTP_HOST":         "smtp.example.com",
				"SMTP_USERNAME":     "mailer@example.com",
				"OTP_STORE":         "redis",
				"OTP_TTL":           "5m",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "mailer@example.com", cfg.SMTP.From)
				assert.Equal(t, OTPStoreRedis, cfg.OTP.Store)
				assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
			},
		},
		{
			name:        "failure: missing database url",
			env:         map[string]string{"TOKEN_AUTH_SECRET": "secret"},
			expectError: true,
		},
		{
			name: "failure: unknown otp store",
			env: map[string]string{
				"DATABASE_URL":      "postgres://localhost/hackathon",
				"TOKEN_AUTH_SECRET": "secret",
				"OTP_STORE":         "memcached",
			},
			expectError: true,
		},
		{
			name: "failure: suffix without at sign",
			env: map[string]string{
				"DATABASE_URL":               "postgres://localhost/hackathon",
				"TOKEN_AUTH_SECRET":          "secret",
				"INSTITUTIONAL_EMAIL_SUFFIX": "vitapstudent.ac.in",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("TOKEN_AUTH_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Parse()
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
