package services

import (
	"github.com/shopfloor/board/backend/pkg/response"
)

// Session is the identity of the caller as asserted by the identity provider.
// UserID is the provider's user id, not the local users.id.
type Session struct {
	UserID         string
	OrganizationID string
	OrgRole        string
}

var errUnauthorized = response.NewUnauthorized("Unauthorized")

// Validate must pass before any store access.
func (s Session) Validate() error {
	if s.UserID == "" || s.OrganizationID == "" {
		return errUnauthorized
	}
	return nil
}

func (s Session) IsOrgAdmin() bool {
	return s.OrgRole == "admin" || s.OrgRole == "org:admin"
}
