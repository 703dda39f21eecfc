package service

import (
	"context"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/notify"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// TokenIssuer signs admin bearer tokens.
type TokenIssuer interface {
	GenerateToken(tokenType auth.TokenType, subject string) (string, error)
}

type AdminService struct {
	admins repository.AdminRepository
	teams  repository.TeamRepository
	tokens TokenIssuer
	sender notify.Sender

	metrics *metrics.Recorder

	comparePassword func(hash, plain string) error
}

func NewAdminService(tokens TokenIssuer) *AdminService {
	return &AdminService{
		tokens:          tokens,
		comparePassword: auth.ComparePassword,
	}
}

// Login checks the password and returns a signed admin token. Unknown users
// and wrong passwords are indistinguishable to the caller, in response and in
// timing: an unknown user is still compared against a dummy hash.
func (a *AdminService) Login(ctx context.Context, username, password string) (string, *Error) {
	l := logger.FromContext(ctx)

	admin, err := a.admins.Get(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		_ = a.comparePassword(auth.DummyHash(), password)
		l.Warn("login for unknown admin", zap.String("username", username))
		return "", NewError(ErrorCodeInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		l.Error("failed to load admin", zap.String("username", username), zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to log in")
	}

	if err = a.comparePassword(admin.PasswordHash, password); err != nil {
		l.Warn("admin password mismatch", zap.String("username", username))
		return "", NewError(ErrorCodeInvalidCredentials, "invalid credentials")
	}

	token, err := a.tokens.GenerateToken(auth.TokenTypeAdmin, admin.Username)
	if err != nil {
		l.Error("failed to sign admin token", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to log in")
	}

	l.Info("admin logged in", zap.String("username", username))
	return token, nil
}

func (a *AdminService) ListTeams(ctx context.Context) ([]*model.Team, *Error) {
	l := logger.FromContext(ctx)

	teams, err := a.teams.List(ctx)
	if err != nil {
		l.Error("failed to list teams", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}

	members, err := a.teams.GetMembers(ctx, ids...)
	if err != nil {
		l.Error("failed to list team members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
	}

	res := make([]*model.Team, 0, len(teams))
	for _, t := range teams {
		res = append(res, toModelTeam(t, members[t.ID]))
	}

	return res, nil
}

// Qualify marks the team as qualified. Repeated calls succeed.
func (a *AdminService) Qualify(ctx context.Context, identifier string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	team, err := a.teams.MarkQualified(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("identifier", identifier))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to qualify team", zap.String("identifier", identifier), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to qualify team")
	}

	l.Info("team qualified", zap.String("identifier", identifier))
	return toModelTeam(team, nil), nil
}

// Export renders every team as CSV with the columns
// name, identifier, college, track, verified, qualified.
func (a *AdminService) Export(ctx context.Context) ([]byte, *Error) {
	l := logger.FromContext(ctx)

	teams, err := a.teams.List(ctx)
	if err != nil {
		l.Error("failed to list teams for export", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to export teams")
	}

	rows := make([]*model.ExportRow, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, toExportRow(t))
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		l.Error("failed to encode export", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to export teams")
	}

	l.Info("teams exported", zap.Int("rows", len(rows)))
	return out, nil
}

// SendCertificate mails the participation certificate to the team leader
// regardless of the team's verified or qualified state. Delivery failures are
// logged and counted but do not fail the call.
func (a *AdminService) SendCertificate(ctx context.Context, identifier string) *Error {
	l := logger.FromContext(ctx)

	team, err := a.teams.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("identifier", identifier))
		return NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("identifier", identifier), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to send certificate")
	}

	err = a.sender.Send(ctx, notify.CertificateMessage(team.LeaderEmail, team.Name))
	a.metrics.Notification("certificate", err)
	if err != nil {
		l.Error("failed to send certificate",
			zap.String("identifier", identifier),
			zap.String("email", team.LeaderEmail),
			zap.Error(err))
		return nil
	}

	l.Info("certificate sent", zap.String("identifier", identifier))
	return nil
}

// SeedAdmin creates the admin or resets its password.
func (a *AdminService) SeedAdmin(ctx context.Context, username, password string) *Error {
	l := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return NewError(ErrorCodeInvalidBody, "username and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		l.Error("failed to hash admin password", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to seed admin")
	}

	if err = a.admins.Upsert(ctx, &repository.Admin{Username: username, PasswordHash: hash}); err != nil {
		l.Error("failed to store admin", zap.String("username", username), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to seed admin")
	}

	l.Info("admin seeded", zap.String("username", username))
	return nil
}

func (a *AdminService) WithAdminRepo(r repository.AdminRepository) *AdminService {
	a.admins = r
	return a
}

func (a *AdminService) WithTeamRepo(r repository.TeamRepository) *AdminService {
	a.teams = r
	return a
}

func (a *AdminService) WithSender(s notify.Sender) *AdminService {
	a.sender = s
	return a
}

func (a *AdminService) WithMetrics(m *metrics.Recorder) *AdminService {
	a.metrics = m
	return a
}
