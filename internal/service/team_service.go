package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// CodeIssuer sends a one-time code to a team leader.
type CodeIssuer interface {
	Issue(ctx context.Context, email string) *Error
}

type TeamService struct {
	tx db.Transactor

	teams    repository.TeamRepository
	issuer   CodeIssuer
	validate *validator.Validate
	metrics  *metrics.Recorder

	newIdentifier func() (string, error)
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx:            tx,
		validate:      model.NewValidator(model.DefaultEmailSuffix),
		newIdentifier: NewTeamIdentifier,
	}
}

// Register persists a new team under a freshly generated identifier and sends
// the leader a verification code.
func (t *TeamService) Register(ctx context.Context, reg *model.Registration) (string, *Error) {
	l := logger.FromContext(ctx)

	if err := t.validate.Struct(reg); err != nil {
		l.Warn("registration rejected", zap.String("team_name", reg.Name), zap.Error(err))
		t.metrics.Registration("invalid")
		return "", NewError(ErrorCodeInvalidBody, model.DescribeValidation(err))
	}

	l.Info("registering team", zap.String("team_name", reg.Name), zap.String("leader_email", reg.Leader.Email))

	members := make([]*repository.Member, 0, len(reg.Members))
	for i, m := range reg.Members {
		members = append(members, &repository.Member{
			Position: int16(i + 1),
			Name:     m.Name,
			Email:    m.Email,
		})
	}

	var team *repository.Team
	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		identifier, err := t.newIdentifier()
		if err != nil {
			l.Error("failed to generate team identifier", zap.Error(err))
			t.metrics.Registration("error")
			return "", NewError(ErrorCodeUnspecified, "failed to register team")
		}

		candidate := &repository.Team{
			ID:          uuid.NewString(),
			Identifier:  identifier,
			Name:        reg.Name,
			LeaderName:  reg.Leader.Name,
			LeaderEmail: reg.Leader.Email,
			College:     reg.College,
			Track:       reg.Track,
		}

		err = t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := t.teams.Create(txCtx, candidate); err != nil {
				return err
			}
			return t.teams.AddMembers(txCtx, candidate.ID, members)
		})
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("team identifier collision",
				zap.String("identifier", identifier),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			l.Error("failed to create team", zap.String("team_name", reg.Name), zap.Error(err))
			t.metrics.Registration("error")
			return "", NewError(ErrorCodeUnspecified, "failed to register team")
		}

		team = candidate
		break
	}

	if team == nil {
		l.Error("team identifier space exhausted", zap.Int("attempts", maxIdentifierAttempts))
		t.metrics.Registration("conflict")
		return "", NewError(ErrorCodeConflict, "could not allocate a team identifier, please retry")
	}

	if err := t.issuer.Issue(ctx, reg.Leader.Email); err != nil {
		l.Error("team registered but verification code was not issued",
			zap.String("identifier", team.Identifier),
			zap.String("error", err.Message))
		t.metrics.Registration("error")
		return "", err
	}

	t.metrics.Registration("created")
	l.Debug("team registered", zap.String("identifier", team.Identifier))

	return team.Identifier, nil
}

func (t *TeamService) Status(ctx context.Context, identifier string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team status", zap.String("identifier", identifier))

	team, err := t.teams.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("identifier", identifier))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("identifier", identifier), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	members, err := t.teams.GetMembers(ctx, team.ID)
	if err != nil {
		l.Error("failed to get team members", zap.String("identifier", identifier), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team members")
	}

	return toModelTeam(team, members[team.ID]), nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithIssuer(i CodeIssuer) *TeamService {
	t.issuer = i
	return t
}

func (t *TeamService) WithValidator(v *validator.Validate) *TeamService {
	t.validate = v
	return t
}

func (t *TeamService) WithMetrics(m *metrics.Recorder) *TeamService {
	t.metrics = m
	return t
}
