package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/notify"
	"github.com/yakoovad/hackathon-portal/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) AddMembers(ctx context.Context, teamID string, members []*repository.Member) error {
	args := m.Called(ctx, teamID, members)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByIdentifier(ctx context.Context, identifier string) (*repository.Team, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context) ([]*repository.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) GetMembers(ctx context.Context, teamIDs ...string) (map[string][]*repository.Member, error) {
	args := m.Called(ctx, teamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*repository.Member), args.Error(1)
}

func (m *MockTeamRepository) MarkVerified(ctx context.Context, leaderEmail string) (*repository.Team, error) {
	args := m.Called(ctx, leaderEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) MarkQualified(ctx context.Context, identifier string) (*repository.Team, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Get(ctx context.Context, username string) (*repository.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Admin), args.Error(1)
}

func (m *MockAdminRepository) Upsert(ctx context.Context, admin *repository.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	args := m.Called(ctx, email, code, ttl)
	return args.Error(0)
}

func (m *MockStore) Consume(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(ctx context.Context, email string) *Error {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*Error)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(tokenType auth.TokenType, subject string) (string, error) {
	args := m.Called(tokenType, subject)
	return args.String(0), args.Error(1)
}
