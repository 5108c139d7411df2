package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type testConfig struct{}

func (testConfig) GetHTTPAddr() string         { return ":0" }
func (testConfig) GetCORSAllowAll() bool       { return true }
func (testConfig) GetCORSOrigins() []string    { return nil }
func (testConfig) GetCORSAllowCreds() bool     { return false }
func (testConfig) GetIntakeRateLimit() float64 { return 1 }
func (testConfig) GetIntakeRateBurst() int     { return 1 }
func (testConfig) GetJWTAccessSecret() string  { return testSecret }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"organization_id": httpkit.MustGetIdentity(c).OrganizationID()})
	}
	ctx.Protected.GET("/whoami", whoami)
	ctx.Admin.POST("/admin-only", whoami)
	if ctx.IntakeRateLimit != nil {
		ctx.Protected.POST("/intake", ctx.IntakeRateLimit, whoami)
	}
}

func token(t *testing.T, orgID uuid.UUID, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": orgID.String(),
		"type":      "access",
		"roles":     roles,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:        testConfig{},
		Logger:        logger.Discard(),
		Health:        health,
		IntakeLimiter: httpkit.NewIPRateLimiter(1, 1),
		Modules:       []apphttp.Module{echoModule{}},
	})
}

func do(engine *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	engine := newEngine(nil)

	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/api/ready", "").Code)

	rec := do(engine, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "leadscore_http_request_duration_seconds"))
}

func TestReadinessReportsUnavailable(t *testing.T) {
	engine := newEngine(pingFunc(func(context.Context) error { return errors.New("db down") }))
	assert.Equal(t, http.StatusServiceUnavailable, do(engine, http.MethodGet, "/api/ready", "").Code)
}

func TestProtectedRoutes(t *testing.T) {
	engine := newEngine(nil)
	orgID := uuid.New()

	assert.Equal(t, http.StatusUnauthorized, do(engine, http.MethodGet, "/api/v1/whoami", "").Code)

	rec := do(engine, http.MethodGet, "/api/v1/whoami", token(t, orgID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), orgID.String())
}

func TestAdminRoutesRequireRole(t *testing.T) {
	engine := newEngine(nil)
	orgID := uuid.New()

	assert.Equal(t, http.StatusForbidden, do(engine, http.MethodPost, "/api/v1/admin-only", token(t, orgID)).Code)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodPost, "/api/v1/admin-only", token(t, orgID, "admin")).Code)
}

func TestIntakeRateLimit(t *testing.T) {
	engine := newEngine(nil)
	bearer := token(t, uuid.New())

	assert.Equal(t, http.StatusOK, do(engine, http.MethodPost, "/api/v1/intake", bearer).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(engine, http.MethodPost, "/api/v1/intake", bearer).Code)
}
