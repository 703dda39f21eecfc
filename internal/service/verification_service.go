package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/notify"
	"github.com/yakoovad/hackathon-portal/internal/otp"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const DefaultOTPTTL = 10 * time.Minute

// VerificationService issues one-time codes to team leaders and confirms them.
type VerificationService struct {
	store  otp.Store
	teams  repository.TeamRepository
	sender notify.Sender

	ttl        time.Duration
	codeLength int
	generate   func(length int) (string, error)

	metrics *metrics.Recorder
}

func NewVerificationService(store otp.Store, ttl time.Duration) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &VerificationService{
		store:      store,
		ttl:        ttl,
		codeLength: otp.DefaultCodeLength,
		generate:   otp.GenerateCode,
	}
}

// Issue stores a fresh code for email and mails it. Delivery failures are
// logged and do not fail the call.
func (v *VerificationService) Issue(ctx context.Context, email string) *Error {
	l := logger.FromContext(ctx)

	code, err := v.generate(v.codeLength)
	if err != nil {
		l.Error("failed to generate otp", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to issue verification code")
	}

	if err = v.store.Save(ctx, email, code, v.ttl); err != nil {
		l.Error("failed to store otp", zap.String("email", email), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to issue verification code")
	}

	err = v.sender.Send(ctx, notify.OTPMessage(email, code))
	v.metrics.Notification("otp", err)
	if err != nil {
		l.Error("failed to send otp email", zap.String("email", email), zap.Error(err))
		return nil
	}

	l.Debug("otp issued", zap.String("email", email), zap.Duration("ttl", v.ttl))
	return nil
}

// Verify consumes the pending code for email and marks the leader's team verified.
// If the update fails the code is stored again with a fresh TTL.
func (v *VerificationService) Verify(ctx context.Context, email, code string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	ok, err := v.store.Consume(ctx, email, code)
	if err != nil {
		l.Error("failed to consume otp", zap.String("email", email), zap.Error(err))
		v.metrics.Verification("error")
		return nil, NewError(ErrorCodeUnspecified, "failed to verify code")
	}
	if !ok {
		l.Warn("invalid otp submitted", zap.String("email", email))
		v.metrics.Verification("invalid_code")
		return nil, NewError(ErrorCodeInvalidCode, "invalid or expired code")
	}

	team, err := v.teams.MarkVerified(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		l.Error("otp matched but no team is led by email", zap.String("email", email))
		v.metrics.Verification("team_missing")
		return nil, NewError(ErrorCodeTeamMissing, "no team registered for this email")
	}
	if err != nil {
		l.Error("failed to mark team verified", zap.String("email", email), zap.Error(err))
		v.metrics.Verification("error")
		// put the code back so the leader can resubmit it
		if rerr := v.store.Save(ctx, email, code, v.ttl); rerr != nil {
			l.Error("failed to restore otp", zap.String("email", email), zap.Error(rerr))
		}
		return nil, NewError(ErrorCodeUnspecified, "failed to verify team")
	}

	v.metrics.Verification("verified")
	l.Info("team verified", zap.String("identifier", team.Identifier))

	return toModelTeam(team, nil), nil
}

func (v *VerificationService) WithTeamRepo(r repository.TeamRepository) *VerificationService {
	v.teams = r
	return v
}

func (v *VerificationService) WithSender(s notify.Sender) *VerificationService {
	v.sender = s
	return v
}

func (v *VerificationService) WithMetrics(m *metrics.Recorder) *VerificationService {
	v.metrics = m
	return v
}
