package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	team   *service.TeamService
	verify *service.VerificationService
	admin  *service.AdminService

	tokens        *auth.TokenManager
	emailSuffix   string
	healthChecker HealthChecker
	metrics       *metrics.Recorder
	gatherer      prometheus.Gatherer

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		logger:      logger,
		tokens:      tokens,
		emailSuffix: model.DefaultEmailSuffix,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTeamService(team *service.TeamService) *Handler {
	h.team = team
	return h
}

func (h *Handler) WithVerificationService(verify *service.VerificationService) *Handler {
	h.verify = verify
	return h
}

func (h *Handler) WithAdminService(admin *service.AdminService) *Handler {
	h.admin = admin
	return h
}

func (h *Handler) WithEmailSuffix(suffix string) *Handler {
	h.emailSuffix = suffix
	return h
}

// WithMetrics enables request instrumentation and serves g on /metrics.
func (h *Handler) WithMetrics(m *metrics.Recorder, g prometheus.Gatherer) *Handler {
	h.metrics = m
	h.gatherer = g
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator(h.emailSuffix)
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(MetricsMiddleware(h.metrics))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	teams := e.Group("/api/teams")

	teams.POST("/register", h.RegisterTeam)
	teams.POST("/verify", h.VerifyTeam)
	teams.GET("/status/:identifier", h.GetTeamStatus)

	e.POST("/api/admin/login", h.AdminLogin)

	adminSecurity := e.Group("/api/admin", AuthMiddleware(h.tokens, auth.TokenTypeAdmin))

	adminSecurity.GET("/teams", h.ListTeams)
	adminSecurity.PUT("/qualify/:identifier", h.QualifyTeam)
	adminSecurity.GET("/export", h.ExportTeams)
	adminSecurity.GET("/export/csv", h.ExportTeams)
	adminSecurity.POST("/certificate/:identifier", h.SendCertificate)
}

func (h *Handler) RegisterTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.Registration{}

	if err := h.decodeRequest(e, req); err != nil {
		l.Warn("invalid registration", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("registering team", zap.String("team_name", req.Name))

	identifier, err := h.team.Register(e.Request().Context(), req)
	if err != nil {
		l.Error("failed to register team", zap.String("team_name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, map[string]string{
		"identifier": identifier,
		"message":    "team registered, verification code sent",
	})
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"`
	OTP   string `json:"otp"`
}

func (h *Handler) VerifyTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req verifyRequest

	err := ProcessRequest(e, &req, bindStep[verifyRequest], validateStep[verifyRequest], func(_ echo.Context, r *verifyRequest) error {
		if r.Code == "" {
			r.Code = r.OTP
		}
		if r.Code == "" {
			return service.NewError(service.ErrorCodeInvalidBody, "code is required")
		}
		return nil
	})
	if err != nil {
		l.Warn("invalid verification request", zap.Error(err))
		return h.transportError(e, asServiceError(err))
	}

	l.Info("verifying team leader", zap.String("email", req.Email))

	if _, serr := h.verify.Verify(e.Request().Context(), req.Email, req.Code); serr != nil {
		l.Warn("verification failed", zap.String("email", req.Email), zap.Any("error", serr))
		return h.transportError(e, serr)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "verification successful"})
}

func (h *Handler) GetTeamStatus(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	identifier := e.Param("identifier")

	l.Info("getting team status", zap.String("identifier", identifier))

	team, err := h.team.Status(e.Request().Context(), identifier)
	if err != nil {
		l.Error("failed to get team status", zap.String("identifier", identifier), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) AdminLogin(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Warn("invalid login request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	token, err := h.admin.Login(e.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) ListTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teams, err := h.admin.ListTeams(e.Request().Context())
	if err != nil {
		l.Error("failed to list teams", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, teams)
}

func (h *Handler) QualifyTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	identifier := e.Param("identifier")

	l.Info("qualifying team", zap.String("identifier", identifier))

	if _, err := h.admin.Qualify(e.Request().Context(), identifier); err != nil {
		l.Error("failed to qualify team", zap.String("identifier", identifier), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "team qualified"})
}

func (h *Handler) ExportTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	out, err := h.admin.Export(e.Request().Context())
	if err != nil {
		l.Error("failed to export teams", zap.Any("error", err))
		return h.transportError(e, err)
	}

	e.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=teams.csv")
	return e.Blob(http.StatusOK, "text/csv", out)
}

func (h *Handler) SendCertificate(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	identifier := e.Param("identifier")

	l.Info("sending certificate", zap.String("identifier", identifier))

	if err := h.admin.SendCertificate(e.Request().Context(), identifier); err != nil {
		l.Error("failed to send certificate", zap.String("identifier", identifier), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "certificate sent"})
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, model.DescribeValidation(err))
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	if err.Code == service.ErrorCodeUnspecified {
		err = service.NewError(service.ErrorCodeUnspecified, "internal error")
	}

	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeInvalidBody, service.ErrorCodeInvalidCode:
		return e.JSON(http.StatusBadRequest, response)
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeInvalidCredentials, service.ErrorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeConflict:
		return e.JSON(http.StatusConflict, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
