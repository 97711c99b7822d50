package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository/repotest"
	"portfolio_api/internal/platform/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler    http.Handler
	users      *repotest.UserStore
	portfolios *repotest.PortfolioStore
	mock       sqlmock.Sqlmock
	auth       *service.AuthService
}

func newTestServer(t *testing.T, system repotest.SystemStub) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repotest.NewUserStore()
	portfolios := repotest.NewPortfolioStore(users)
	audits := repotest.NewAuditStore()

	cfg := &config.Config{
		AppEnv:          config.EnvDevelopment,
		JWTKey:          []byte("router-secret"),
		JWTExp:          time.Hour,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	auth := service.NewAuthService(users, tokens, nil)

	h := NewRouter(Deps{
		Config:           cfg,
		AuthService:      auth,
		UserService:      service.NewUserService(users),
		PortfolioService: service.NewPortfolioService(portfolios, users),
		AdminService:     service.NewAdminService(db, users, portfolios, audits, system, nil, nil, cfg.AppEnv),
		DB:               system,
	})
	return &testServer{handler: h, users: users, portfolios: portfolios, mock: mock, auth: auth}
}

type reply struct {
	code int
	body map[string]any
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) reply {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	out := reply{code: rec.Code}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.body), rec.Body.String())
	}
	return out
}

func (r reply) message() string {
	msg, _ := r.body["message"].(string)
	return msg
}

func (r reply) object(key string) map[string]any {
	obj, _ := r.body[key].(map[string]any)
	return obj
}

func (s *testServer) register(t *testing.T, name, email string) (token, id string) {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)
	return res.body["token"].(string), res.object("user")["id"].(string)
}

func (s *testServer) admin(t *testing.T) (token, id string) {
	t.Helper()
	_, _, err := s.auth.EnsureAdmin(context.Background(), "Site Admin", "admin@example.com", "admin-pass")
	require.NoError(t, err)
	res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	return res.body["token"].(string), res.object("user")["id"].(string)
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})

	res := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, true, res.body["success"])
	assert.Equal(t, "connected", res.body["database"])

	res = s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Route not found", res.message())

	res = s.do(t, http.MethodGet, "/api/auth/test", "", nil)
	assert.Equal(t, "Auth route is working", res.message())
	env := res.object("environment")
	assert.Equal(t, true, env["hasJwtSecret"])
	assert.Equal(t, true, env["hasDatabase"])

	down := newTestServer(t, repotest.SystemStub{PingErr: errors.New("connection refused")})
	res = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.code)
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})

	token, id := s.register(t, "Ada Lovelace", "Ada@Example.com")

	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Imposter", "email": "ada@example.com", "password": "secret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "User already exists with this email", res.message())

	res = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Validation failed", res.message())
	assert.NotEmpty(t, res.body["errors"])

	res = s.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Invalid request payload", res.message())

	res = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Invalid credentials", res.message())

	res = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ADA@example.com", "password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Login successful", res.message())
	assert.NotEmpty(t, res.object("user")["lastLogin"])

	res = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	user := res.object("user")
	assert.Equal(t, id, user["id"])
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "PasswordHash")

	res = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "No token provided, authorization denied", res.message())

	res = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, "Logout successful", res.message())
}

func TestRouter_ProfileUpdate(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})
	token, _ := s.register(t, "Ada Lovelace", "ada@example.com")

	res := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]any{
		"bio":         "Analyst",
		"socialLinks": map[string]string{"github": "https://github.com/ada"},
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Profile updated successfully", res.message())
	user := res.object("user")
	assert.Equal(t, "Analyst", user["bio"])
	assert.Equal(t, "Ada Lovelace", user["name"])

	res = s.do(t, http.MethodGet, "/api/users/profile", token, nil)
	assert.Equal(t, "Analyst", res.object("user")["bio"])
}

func TestRouter_PortfolioLifecycle(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})
	token, id := s.register(t, "Ada Lovelace", "ada@example.com")

	res := s.do(t, http.MethodGet, "/api/portfolio/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Portfolio not found or not public", res.message())

	res = s.do(t, http.MethodPut, "/api/portfolio/my/visibility", token, nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Portfolio not found", res.message())

	res = s.do(t, http.MethodGet, "/api/portfolio/my/data", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	p := res.object("portfolio")
	assert.Equal(t, "Software Engineer", p["personalInfo"].(map[string]any)["title"])
	assert.Equal(t, true, p["isPublic"])
	slug := p["slug"].(string)
	assert.True(t, strings.HasPrefix(slug, "ada-lovelace-"))

	res = s.do(t, http.MethodPost, "/api/portfolio/my/skills", token, map[string]string{
		"name": "Go", "level": "Expert", "category": "Backend",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Skill added successfully", res.message())
	assert.Len(t, res.object("portfolio")["skills"], 1)

	res = s.do(t, http.MethodPost, "/api/portfolio/my/skills", token, map[string]string{
		"name": "Go", "level": "Wizard", "category": "Backend",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = s.do(t, http.MethodPost, "/api/portfolio/my/experience", token, map[string]string{
		"company": "Analytical Engines", "position": "Programmer", "startDate": "1842-01-01",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Experience added successfully", res.message())

	res = s.do(t, http.MethodPut, "/api/portfolio/my/visibility", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Portfolio is now private", res.message())

	res = s.do(t, http.MethodGet, "/api/portfolio/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Portfolio not found or not public", res.message())

	res = s.do(t, http.MethodPut, "/api/portfolio/my/visibility", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Portfolio is now public", res.message())

	res = s.do(t, http.MethodGet, "/api/portfolio/"+id, "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Ada Lovelace", res.object("portfolio")["user"].(map[string]any)["name"])

	res = s.do(t, http.MethodGet, "/api/portfolio/slug/"+strings.ToUpper(slug), "", nil)
	assert.Equal(t, http.StatusOK, res.code)
}

func TestRouter_AdminRequiresAdminRole(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})
	token, _ := s.register(t, "Ada Lovelace", "ada@example.com")

	res := s.do(t, http.MethodGet, "/api/admin/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "Access denied. Admin only.", res.message())

	res = s.do(t, http.MethodGet, "/api/users/", token, nil)
	assert.Equal(t, http.StatusForbidden, res.code)

	res = s.do(t, http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
}

func TestRouter_AdminUserManagement(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{Info: model.DatabaseInfo{OpenConnections: 1}})
	adminToken, adminID := s.admin(t)
	userToken, userID := s.register(t, "Ada Lovelace", "ada@example.com")

	res := s.do(t, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, 2.0, res.object("stats")["totalUsers"])

	res = s.do(t, http.MethodGet, "/api/admin/users?search=ADA&page=1&limit=5", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["users"], 1)
	assert.Equal(t, 1.0, res.object("pagination")["total"])

	res = s.do(t, http.MethodPut, "/api/admin/users/"+adminID+"/toggle-status", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Cannot change your own status", res.message())

	res = s.do(t, http.MethodPut, "/api/admin/users/"+userID+"/toggle-status", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "User deactivated successfully", res.message())

	res = s.do(t, http.MethodGet, "/api/auth/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "User account is deactivated", res.message())

	res = s.do(t, http.MethodPut, "/api/users/"+userID+"/role", adminToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = s.do(t, http.MethodPut, "/api/users/"+userID+"/role", adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "User role updated to admin", res.message())

	res = s.do(t, http.MethodGet, "/api/admin/system-info", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, 1.0, res.object("system")["database"].(map[string]any)["openConnections"])

	res = s.do(t, http.MethodDelete, "/api/admin/users/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Cannot delete your own account", res.message())

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()
	res = s.do(t, http.MethodDelete, "/api/admin/users/"+userID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "User and associated portfolio deleted successfully", res.message())
	assert.NoError(t, s.mock.ExpectationsWereMet())

	res = s.do(t, http.MethodDelete, "/api/admin/users/"+userID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "User not found", res.message())
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, repotest.SystemStub{})
	s.do(t, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
