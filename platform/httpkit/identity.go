package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "httpkit.identity"

// Identity is the authenticated caller as resolved by AuthRequired.
type Identity interface {
	UserID() uuid.UUID
	// OrganizationID is the tenant every read and write is scoped to.
	OrganizationID() uuid.UUID
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID         uuid.UUID
	organizationID uuid.UUID
	roles          []string
	authenticated  bool
}

func (i *identity) UserID() uuid.UUID         { return i.userID }
func (i *identity) OrganizationID() uuid.UUID { return i.organizationID }
func (i *identity) IsAuthenticated() bool     { return i.authenticated }
func (i *identity) HasRole(role string) bool  { return slices.Contains(i.roles, role) }

var anonymous = &identity{}

// GetIdentity returns the caller, or an unauthenticated Identity when the
// route is not behind AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*identity); ok {
			return id
		}
	}
	return anonymous
}

// MustGetIdentity aborts with 401 and returns nil when nobody is signed in.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		abortWithError(c, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	return id
}
