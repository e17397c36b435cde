package domain

import (
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

// AuthContext is the per-request view of an authenticated principal. It is
// built from verified access-token claims plus a fresh user/role/permission
// load, so authorization decisions never rely on stale claims.
type AuthContext struct {
	User      *User
	TokenID   string
	IPAddress string
	UserAgent string
	RequestID string

	permissions map[string]struct{}
}

// NewAuthContext builds the context from a freshly loaded user. Only active
// permissions of the user's role are considered.
func NewAuthContext(user *User, tokenID, ip, userAgent, requestID string) *AuthContext {
	perms := make(map[string]struct{})
	if user != nil && user.Role != nil {
		for _, p := range user.Role.Permissions {
			if p.IsActive {
				perms[p.Name] = struct{}{}
			}
		}
	}
	return &AuthContext{
		User:        user,
		TokenID:     tokenID,
		IPAddress:   ip,
		UserAgent:   userAgent,
		RequestID:   requestID,
		permissions: perms,
	}
}

// HasPermission checks an exact permission name (resource.action).
func (a *AuthContext) HasPermission(name string) bool {
	_, ok := a.permissions[name]
	return ok
}

// HasAny reports whether the principal holds at least one of the names.
func (a *AuthContext) HasAny(names ...string) bool {
	for _, n := range names {
		if a.HasPermission(n) {
			return true
		}
	}
	return false
}

// HasAll reports whether the principal holds every one of the names.
func (a *AuthContext) HasAll(names ...string) bool {
	for _, n := range names {
		if !a.HasPermission(n) {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the principal's role is admin or superadmin.
func (a *AuthContext) IsAdmin() bool {
	role := a.User.RoleName()
	return role == constant.RoleAdmin || role == constant.RoleSuperadmin
}

// IsSuperadmin reports whether the principal's role is superadmin.
func (a *AuthContext) IsSuperadmin() bool {
	return a.User.RoleName() == constant.RoleSuperadmin
}
