package clerk

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/localspot/localspot-backend/pkg/enums"
)

// SessionClaims is the typed shape of the provider's session token. The role
// snapshot embedded here can lag the database until the token is refreshed;
// the request gate trades that staleness for a DB-free check.
type SessionClaims struct {
	Metadata ClaimsMetadata `json:"metadata"`
	jwt.RegisteredClaims
}

// ClaimsMetadata mirrors the public metadata the role manager pushes onto the
// provider user.
type ClaimsMetadata struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// UserID returns the subject of the session token.
func (c *SessionClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Role parses the embedded role claim. Absence or an unknown value means no
// elevated privilege, never an error.
func (c *SessionClaims) Role() (enums.UserRole, bool) {
	if c == nil || c.Metadata.Role == "" {
		return "", false
	}
	role, err := enums.ParseUserRole(c.Metadata.Role)
	if err != nil {
		return "", false
	}
	return role, true
}

// HasRole reports whether the claims roles list carries the given role. The
// primary role claim counts as well.
func (c *SessionClaims) HasRole(role enums.UserRole) bool {
	if c == nil {
		return false
	}
	if c.Metadata.Role == string(role) {
		return true
	}
	for _, candidate := range c.Metadata.Roles {
		if candidate == string(role) {
			return true
		}
	}
	return false
}
