package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadscore_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtConfig string

func (s jwtConfig) GetJWTAccessSecret() string { return string(s) }

const testSecret = jwtConfig("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(testSecret), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"organization_id": id.OrganizationID().String()})
	})
	return r
}

func TestAuthRequired_ResolvesOrganization(t *testing.T) {
	orgID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": orgID.String(),
		"type":      "access",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), orgID.String())
}

func TestAuthRequired_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		header string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{
			name:   "refresh token",
			claims: jwt.MapClaims{"sub": uuid.NewString(), "tenant_id": uuid.NewString(), "type": "refresh"},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "no tenant",
			claims: jwt.MapClaims{"sub": uuid.NewString(), "type": "access"},
			want:   http.StatusForbidden,
		},
		{name: "garbage", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			switch {
			case tc.header != "":
				req.Header.Set("Authorization", tc.header)
			case tc.claims != nil:
				req.Header.Set("Authorization", "Bearer "+signToken(t, tc.claims))
			}
			rec := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/leads", RateLimit(NewIPRateLimiter(0, 2), nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestRateLimit_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/leads", RateLimit(failingLimiter{}, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[error]int{
		apperr.NotFound("lead not found"):           http.StatusNotFound,
		apperr.Conflict("training already running"): http.StatusConflict,
		apperr.Unavailable("redis down"):            http.StatusServiceUnavailable,
		assert.AnError:                              http.StatusInternalServerError,
	}
	for err, want := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		require.True(t, HandleError(c, err))
		assert.Equal(t, want, rec.Code, err.Error())
	}
}
