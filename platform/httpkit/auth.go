package httpkit

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeAccess = "access"

var (
	errInvalidToken  = errors.New("invalid token")
	errMissingTenant = errors.New("token has no organization")
)

// accessClaims is the access token issued by the identity service.
type accessClaims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id"`
	Type     string   `json:"type"`
	Roles    []string `json:"roles"`
}

// AuthRequired validates the bearer access token and stores the caller's
// Identity. Tokens without a tenant_id are refused with 403.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.GetJWTAccessSecret())
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "missing token")
			return
		}

		id, err := identityFromToken(raw, secret)
		switch {
		case errors.Is(err, errMissingTenant):
			abortWithError(c, http.StatusForbidden, err.Error())
			return
		case err != nil:
			abortWithError(c, http.StatusUnauthorized, errInvalidToken.Error())
			return
		}

		c.Set(identityKey, id)
		ctx := context.WithValue(c.Request.Context(), logger.OrganizationIDKey, id.organizationID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds role. It must run after
// AuthRequired.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).HasRole(role) {
			abortWithError(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func identityFromToken(raw string, secret []byte) (*identity, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, errInvalidToken
	}
	if claims.Type != tokenTypeAccess {
		return nil, errInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errInvalidToken
	}
	if claims.TenantID == "" {
		return nil, errMissingTenant
	}
	orgID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, errInvalidToken
	}

	return &identity{
		userID:         userID,
		organizationID: orgID,
		roles:          slices.Clone(claims.Roles),
		authenticated:  true,
	}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
