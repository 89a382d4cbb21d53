package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/repository/memory"
	"github.com/spec-kit/account-service/internal/service"
)

type stubPresence struct{}

func (stubPresence) Online(_ context.Context, roles ...domain.Role) (map[domain.Role][]string, error) {
	return map[domain.Role][]string{domain.RoleClient: {"c1"}}, nil
}

func (stubPresence) IsOnline(_ context.Context, userID string) (bool, error) {
	return userID == "c1", nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type testServer struct {
	app        *fiber.App
	repos      repository.Repositories
	hasher     *auth.Hasher
	resetToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{hasher: auth.NewHasher(4)}
	store := memory.NewStore()
	ts.repos = store.Repositories()

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventPasswordResetRequested, func(_ context.Context, e events.Event) error {
		ts.resetToken = e.Payload.(events.PasswordResetRequestedPayload).Token
		return nil
	})

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, ResetTokenTTLSeconds: 3600}}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		AuthRepo: ts.repos.Auths,
		UserRepo: ts.repos.Users,
		Accounts: service.NewAccountGate(ts.repos.Clients, ts.repos.Managers),
		Hasher:   ts.hasher,
		Events:   dispatcher,
		Metrics:  metrics,
	})

	logger := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("account-service", "test", map[string]handlers.Pinger{"redis": okPinger{}}),
		Auth:           handlers.NewAuthHandler(authService),
		Presence:       handlers.NewPresenceHandler(stubPresence{}),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewGate(authService)),
		Gatherer:       reg,
	})
	ts.app = app
	return ts
}

func (ts *testServer) seed(t *testing.T, email, password string, role domain.Role) {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{RoleID: role}
	require.NoError(t, ts.repos.Users.Create(ctx, user))
	accounts := ts.repos.Managers
	if role == domain.RoleClient {
		accounts = ts.repos.Clients
	}
	require.NoError(t, accounts.Create(ctx, &domain.Account{ID: user.ID, RoleID: role, Name: "T", Email: email, Status: domain.AccountStatusActive}))
	hash, err := ts.hasher.Hash(password)
	require.NoError(t, err)
	require.NoError(t, ts.repos.Auths.Create(ctx, &domain.AuthCredential{UserID: user.ID, Username: email, PasswordHash: hash, AuthType: domain.AuthTypePersonalEmail}))
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := ts.do(t, "POST", "/auths/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "user@x.com", "Secret@123", domain.RoleClient)

	status, body := ts.do(t, "POST", "/auths/login", map[string]string{"email": "user@x.com", "password": "Secret@123"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "CLIENT", body["roleId"])
	assert.Equal(t, "PERSONAL_EMAIL", body["type"])
	assert.NotEmpty(t, body["userId"])
	assert.NotEmpty(t, body["expiresAt"])

	status, body = ts.do(t, "POST", "/auths/login", map[string]string{"email": "user@x.com", "password": "wrong"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INCORRECT_CREDENTIALS", errorCode(body))
	assert.Equal(t, "errors.incorrect_credentials", body["error"].(map[string]any)["message_key"])

	status, body = ts.do(t, "POST", "/auths/login", "{not json", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = ts.do(t, "POST", "/auths/login", map[string]string{"email": "bad"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	assert.NotEmpty(t, body["error"].(map[string]any)["details"])
}

func TestPasswordResetEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "user@x.com", "Secret@123", domain.RoleManager)

	status, body := ts.do(t, "POST", "/auths/forgot-password", map[string]string{"email": "user@x.com"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"])
	require.NotEmpty(t, ts.resetToken)

	status, body = ts.do(t, "POST", "/auths/forgot-password", map[string]string{"email": "ghost@x.com"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", errorCode(body))

	status, body = ts.do(t, "POST", "/auths/validate-forgot-key", map[string]string{"email": "ghost@x.com", "forgotKey": "x"}, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["data"])

	status, body = ts.do(t, "POST", "/auths/validate-forgot-key", map[string]string{"email": "user@x.com", "forgotKey": ts.resetToken}, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"])

	reset := map[string]string{"forgotKey": ts.resetToken, "email": "user@x.com", "password": "NewSecret@1"}
	status, body = ts.do(t, "POST", "/auths/reset-password", reset, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"])

	status, body = ts.do(t, "POST", "/auths/reset-password", reset, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "TOKEN_MISMATCH", errorCode(body))

	ts.login(t, "user@x.com", "NewSecret@1")
}

func TestIdentityEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "user@x.com", "Secret@123", domain.RoleClient)
	token := ts.login(t, "user@x.com", "Secret@123")

	status, body := ts.do(t, "POST", "/auths/", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "CLIENT", data["roleId"])
	assert.Equal(t, "PERSONAL_EMAIL", data["type"])

	status, _ = ts.do(t, "POST", "/auths/?token="+token, nil, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = ts.do(t, "POST", "/auths/", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = ts.do(t, "POST", "/auths/", nil, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestUpdatePasswordEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "user@x.com", "Secret@123", domain.RoleClient)
	token := ts.login(t, "user@x.com", "Secret@123")

	change := map[string]string{"oldPassword": "Secret@123", "newPassword": "NewSecret@1"}
	status, _ := ts.do(t, "PATCH", "/auths/password", change, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := ts.do(t, "PATCH", "/auths/password", map[string]string{"oldPassword": "nope", "newPassword": "NewSecret@1"}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INCORRECT_PASSWORD", errorCode(body))

	status, body = ts.do(t, "PATCH", "/auths/password", change, token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"])
}

func TestPresenceRequiresManager(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "client@x.com", "Secret@123", domain.RoleClient)
	ts.seed(t, "boss@x.com", "Secret@123", domain.RoleSuperAdmin)

	status, body := ts.do(t, "GET", "/presence", nil, ts.login(t, "client@x.com", "Secret@123"))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "ACCESS_DENIED", errorCode(body))

	status, body = ts.do(t, "GET", "/presence", nil, ts.login(t, "boss@x.com", "Secret@123"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{"c1"}, body["data"].(map[string]any)["CLIENT"])

	status, body = ts.do(t, "GET", "/presence?role=AUDITOR", nil, ts.login(t, "boss@x.com", "Secret@123"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestPresenceStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t, "client@x.com", "Secret@123", domain.RoleClient)
	ts.seed(t, "boss@x.com", "Secret@123", domain.RoleManager)

	status, body := ts.do(t, "GET", "/presence/c1", nil, ts.login(t, "client@x.com", "Secret@123"))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "ACCESS_DENIED", errorCode(body))

	boss := ts.login(t, "boss@x.com", "Secret@123")
	status, body = ts.do(t, "GET", "/presence/c1", nil, boss)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"userId": "c1", "isOnline": true}, body["data"])

	status, body = ts.do(t, "GET", "/presence/c2", nil, boss)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["isOnline"])
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, "GET", "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, _ = ts.do(t, "GET", "/metrics", nil, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = ts.do(t, "GET", "/does-not-exist", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = ts.do(t, "GET", "/boom", nil, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
	assert.Equal(t, "internal server error", body["error"].(map[string]any)["message"])
}
