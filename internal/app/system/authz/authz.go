// Package authz holds small role predicates used by handlers. Role checks
// always run against server-side state; the session's cached role is only a
// display hint.
package authz

import (
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/domain/models"
)

// IsAdmin reports whether the session user holds the admin role.
func IsAdmin(u *auth.SessionUser) bool {
	return u != nil && u.Role == models.RoleAdmin
}

// HasAnyRole reports whether the user holds at least one of the roles.
func HasAnyRole(u *auth.SessionUser, roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
