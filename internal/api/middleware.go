package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const (
	loggerKey  = "logger"
	subjectKey = "subject"
)

// ZapLoggerMiddleware attaches a request-scoped logger, tagged with the
// request id and route template, and logs one line per request. Requests that
// passed AuthMiddleware also carry the admin subject.
func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqLogger := l.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("route", c.Path()),
			)
			setRequestLogger(c, reqLogger)

			err := next(c)

			req := c.Request()
			res := c.Response()

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			done := GetLoggerFromContext(c)
			switch {
			case err != nil:
				done.Error("request failed", append(fields, zap.Error(err))...)
			case res.Status >= http.StatusInternalServerError:
				done.Error("request completed with server error", fields...)
			default:
				done.Info("request completed", fields...)
			}

			return err
		}
	}
}

func setRequestLogger(c echo.Context, l *zap.Logger) {
	c.Set(loggerKey, l)
	c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), l)))
}

// MetricsMiddleware records count and latency per route template, so path
// parameters do not explode label cardinality.
func MetricsMiddleware(m *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.ObserveRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// AuthMiddleware rejects requests without a valid bearer token of one of the
// given types.
func AuthMiddleware(tokens *auth.TokenManager, tokenTypes ...auth.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := GetLoggerFromContext(c)

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				l.Warn("missing bearer token", zap.Error(auth.ErrMissingToken))
				return unauthorized(c)
			}

			claims, err := tokens.VerifyToken(raw)
			if err != nil {
				l.Warn("rejected bearer token", zap.Error(err))
				return unauthorized(c)
			}

			if !slices.Contains(tokenTypes, claims.Type) {
				l.Warn("token type not allowed", zap.String("type", string(claims.Type)))
				return unauthorized(c)
			}

			c.Set(subjectKey, claims.Subject)
			setRequestLogger(c, l.With(zap.String("admin", claims.Subject)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, struct {
		Error *service.Error `json:"error"`
	}{Error: service.NewError(service.ErrorCodeUnauthorized, "missing or invalid admin token")})
}

func GetLoggerFromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
