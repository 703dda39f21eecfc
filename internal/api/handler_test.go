package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/metrics"
	"github.com/yakoovad/hackathon-portal/internal/otp"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"go.uber.org/zap"
)

type testServer struct {
	echo   *echo.Echo
	tokens *auth.TokenManager
	teams  *service.MockTeamRepository
	admins *service.MockAdminRepository
	sender *service.MockSender
	store  *otp.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		echo:   echo.New(),
		tokens: auth.NewTokenManager("test-secret", time.Hour),
		teams:  new(service.MockTeamRepository),
		admins: new(service.MockAdminRepository),
		sender: new(service.MockSender),
		store:  otp.NewMemoryStore(),
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)

	verify := service.NewVerificationService(s.store, time.Minute).
		WithTeamRepo(s.teams).
		WithSender(s.sender)
	team := service.NewTeamService(new(service.MockTransactor)).
		WithTeamRepo(s.teams).
		WithIssuer(verify)
	admin := service.NewAdminService(s.tokens).
		WithAdminRepo(s.admins).
		WithTeamRepo(s.teams).
		WithSender(s.sender)

	NewHandler(zap.NewNop(), s.tokens).
		WithTeamService(team).
		WithVerificationService(verify).
		WithAdminService(admin).
		WithMetrics(recorder, reg).
		RegisterRoutes(s.echo)

	return s
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(auth.TokenTypeAdmin, "admin")
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) service.ErrorCode {
	t.Helper()
	var body struct {
		Error *service.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

const alphaBody = `{
	"team_name": "Alpha",
	"team_leader": {"name": "Ann", "email": "a@vitapstudent.ac.in"},
	"members": [{"name": "Bob", "email": "b@vitapstudent.ac.in"}],
	"college": "VIT-AP",
	"track": "AI"
}`

func TestHandler_RegisterTeam(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testServer)
		expectedStatus int
		expectedCode   service.ErrorCode
	}{
		{
			name: "created",
			body: alphaBody,
			setupMocks: func(s *testServer) {
				s.teams.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
				s.teams.On("AddMembers", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "mail failure still registers",
			body: alphaBody,
			setupMocks: func(s *testServer) {
				s.teams.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
				s.teams.On("AddMembers", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.sender.On("Send", mock.Anything, mock.Anything).Return(assert.AnError).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"team_name":`,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrorCodeInvalidBody,
		},
		{
			name: "too many members",
			body: `{
				"team_name": "Alpha",
				"team_leader": {"name": "Ann", "email": "a@vitapstudent.ac.in"},
				"members": [
					{"name": "B", "email": "b@vitapstudent.ac.in"},
					{"name": "C", "email": "c@vitapstudent.ac.in"},
					{"name": "D", "email": "d@vitapstudent.ac.in"}
				],
				"college": "VIT-AP"
			}`,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrorCodeInvalidBody,
		},
		{
			name: "outside email domain",
			body: `{
				"team_name": "Alpha",
				"team_leader": {"name": "Ann", "email": "ann@gmail.com"},
				"members": [{"name": "B", "email": "b@vitapstudent.ac.in"}],
				"college": "VIT-AP"
			}`,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrorCodeInvalidBody,
		},
		{
			name: "identifier space exhausted",
			body: alphaBody,
			setupMocks: func(s *testServer) {
				s.teams.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   service.ErrorCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setupMocks(s)

			rec := s.do(http.MethodPost, "/api/teams/register", tt.body, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, rec))
				return
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Regexp(t, `^HTX\d{4}$`, body["identifier"])
			assert.Equal(t, 1, s.store.Len())
		})
	}
}

func TestHandler_VerifyTeam(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Save(context.Background(), "a@vitapstudent.ac.in", "123456", time.Minute))
	s.teams.On("MarkVerified", mock.Anything, "a@vitapstudent.ac.in").
		Return(&repository.Team{Identifier: "HTX1234", Verified: true}, nil).Once()

	rec := s.do(http.MethodPost, "/api/teams/verify", `{"email":"a@vitapstudent.ac.in","code":"000000"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidCode, errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/teams/verify", `{"email":"a@vitapstudent.ac.in","otp":"123456"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/teams/verify", `{"email":"a@vitapstudent.ac.in","code":"123456"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidCode, errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/teams/verify", `{"email":"a@vitapstudent.ac.in"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidBody, errorCode(t, rec))

	s.teams.AssertExpectations(t)
}

func TestHandler_VerifyTeamMissing(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Save(context.Background(), "a@vitapstudent.ac.in", "123456", time.Minute))
	s.teams.On("MarkVerified", mock.Anything, "a@vitapstudent.ac.in").Return(nil, repository.ErrNotFound).Once()

	rec := s.do(http.MethodPost, "/api/teams/verify", `{"email":"a@vitapstudent.ac.in","code":"123456"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.ErrorCodeTeamMissing, errorCode(t, rec))
}

func TestHandler_GetTeamStatus(t *testing.T) {
	s := newTestServer(t)
	s.teams.On("GetByIdentifier", mock.Anything, "HTX1234").Return(&repository.Team{
		ID: "t1", Identifier: "HTX1234", Name: "Alpha", LeaderName: "Ann", LeaderEmail: "a@vitapstudent.ac.in",
	}, nil)
	s.teams.On("GetMembers", mock.Anything, []string{"t1"}).Return(map[string][]*repository.Member{}, nil)
	s.teams.On("GetByIdentifier", mock.Anything, "HTX0000").Return(nil, repository.ErrNotFound)

	rec := s.do(http.MethodGet, "/api/teams/status/HTX1234", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var team map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	assert.Equal(t, "HTX1234", team["identifier"])
	assert.Equal(t, false, team["is_verified"])
	assert.Equal(t, false, team["qualified"])

	rec = s.do(http.MethodGet, "/api/teams/status/HTX0000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.ErrorCodeNotFound, errorCode(t, rec))
}

func TestHandler_AdminLogin(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	s.admins.On("Get", mock.Anything, "admin").Return(&repository.Admin{Username: "admin", PasswordHash: hash}, nil)
	s.admins.On("Get", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	rec := s.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"admin123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	claims, err := s.tokens.VerifyToken(body["token"])
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeAdmin, claims.Type)
	assert.Equal(t, "admin", claims.Subject)

	rec = s.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidCredentials, errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/admin/login", `{"username":"ghost","password":"admin123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidCredentials, errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/admin/login", `{"username":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	expired := auth.NewTokenManager("test-secret", -time.Minute)
	expiredToken, err := expired.GenerateToken(auth.TokenTypeAdmin, "admin")
	require.NoError(t, err)

	foreign := auth.NewTokenManager("other-secret", time.Hour)
	foreignToken, err := foreign.GenerateToken(auth.TokenTypeAdmin, "admin")
	require.NoError(t, err)

	wrongType, err := s.tokens.GenerateToken(auth.TokenTypeUndefined, "admin")
	require.NoError(t, err)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/teams"},
		{http.MethodPut, "/api/admin/qualify/HTX1234"},
		{http.MethodGet, "/api/admin/export"},
		{http.MethodGet, "/api/admin/export/csv"},
		{http.MethodPost, "/api/admin/certificate/HTX1234"},
	}

	for _, r := range routes {
		for name, token := range map[string]string{
			"missing":    "",
			"garbage":    "not-a-jwt",
			"expired":    expiredToken,
			"foreign":    foreignToken,
			"wrong type": wrongType,
		} {
			t.Run(r.method+" "+r.path+" "+name, func(t *testing.T) {
				rec := s.do(r.method, r.path, "", token)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.Equal(t, service.ErrorCodeUnauthorized, errorCode(t, rec))
			})
		}
	}

	s.teams.AssertNotCalled(t, "List", mock.Anything)
	s.teams.AssertNotCalled(t, "MarkQualified", mock.Anything, mock.Anything)
}

func TestHandler_AdminOperations(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	stored := []*repository.Team{
		{ID: "t1", Identifier: "HTX1234", Name: "Alpha", College: "VIT-AP", Track: "AI", Verified: true, Qualified: true,
			LeaderName: "Ann", LeaderEmail: "a@vitapstudent.ac.in"},
	}
	s.teams.On("List", mock.Anything).Return(stored, nil)
	s.teams.On("GetMembers", mock.Anything, []string{"t1"}).Return(map[string][]*repository.Member{}, nil)
	s.teams.On("MarkQualified", mock.Anything, "HTX1234").Return(stored[0], nil)
	s.teams.On("MarkQualified", mock.Anything, "HTX0000").Return(nil, repository.ErrNotFound)
	s.teams.On("GetByIdentifier", mock.Anything, "HTX1234").Return(stored[0], nil)
	s.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	s.sender.On("Send", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	t.Run("list", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/admin/teams", "", token)
		require.Equal(t, http.StatusOK, rec.Code)

		var teams []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
		assert.Len(t, teams, 1)
	})

	t.Run("qualify twice", func(t *testing.T) {
		for range 2 {
			rec := s.do(http.MethodPut, "/api/admin/qualify/HTX1234", "", token)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("qualify unknown", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/api/admin/qualify/HTX0000", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("export", func(t *testing.T) {
		for _, path := range []string{"/api/admin/export", "/api/admin/export/csv"} {
			rec := s.do(http.MethodGet, path, "", token)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
			assert.Equal(t, "attachment; filename=teams.csv", rec.Header().Get(echo.HeaderContentDisposition))
			assert.Equal(t,
				"name,identifier,college,track,verified,qualified\nAlpha,HTX1234,VIT-AP,AI,true,true\n",
				rec.Body.String())
		}
	})

	t.Run("certificate", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/admin/certificate/HTX1234", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)

		// mail gateway down: the request still succeeds
		rec = s.do(http.MethodPost, "/api/admin/certificate/HTX1234", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		s.sender.AssertExpectations(t)
	})
}

func TestHandler_InternalErrorsAreGeneric(t *testing.T) {
	s := newTestServer(t)
	s.teams.On("GetByIdentifier", mock.Anything, "HTX1234").Return(nil, assert.AnError)

	rec := s.do(http.MethodGet, "/api/teams/status/HTX1234", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHandler_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.teams.On("GetByIdentifier", mock.Anything, "HTX0000").Return(nil, repository.ErrNotFound)

	s.do(http.MethodGet, "/api/teams/status/HTX0000", "", "")

	rec := s.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`hackathon_api_http_requests_total{method="GET",route="/api/teams/status/:identifier",status="404"} 1`)
}
