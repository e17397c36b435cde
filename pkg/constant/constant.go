package constant

// Role names with special handling in authorization checks.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
)

// User account statuses.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// Audit event types.
const (
	EventLoginSuccess       = "login_success"
	EventLoginFailed        = "login_failed_credentials"
	EventLoginBlockedLocked = "login_blocked_locked"
	EventLoginError         = "login_error"
	EventLogout             = "logout"
	EventTokenRefresh       = "token_refresh"
	EventPasswordChange     = "password_change"
	EventAccountLocked      = "account_locked"
	EventCSRFViolation      = "csrf_violation"
	EventAuthzFailure       = "authorization_failure"
	EventResourceAccess     = "resource_access"
	EventUserCreated        = "user_created"
	EventUserUpdated        = "user_updated"
	EventUserDeleted        = "user_deleted"
	EventUserLocked         = "user_locked"
	EventRoleCreated        = "role_created"
	EventRoleUpdated        = "role_updated"
	EventRoleDeleted        = "role_deleted"
	EventRoleAssigned       = "role_assigned"
	EventTokenSweep         = "token_sweep"
)

// Audit event categories.
const (
	CategoryAuth     = "auth"
	CategoryUserMgmt = "user_mgmt"
	CategoryRoleMgmt = "role_mgmt"
	CategorySecurity = "security"
	CategoryGeneral  = "general"
)

// Audit event results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Refresh token revocation reasons.
const (
	RevokeReasonLogout   = "logout"
	RevokeReasonRotated  = "rotated"
	RevokeReasonSecurity = "security"
)

// TokenTypeBearer is the token_type value returned to HTTP clients.
const TokenTypeBearer = "bearer"

// Cookie names used by the HTTP layer.
const (
	CookieRefreshToken = "refresh_token"
	CookieCSRFToken    = "csrf_token"
)

// CSRFHeader carries the request copy of the CSRF token (double-submit).
const CSRFHeader = "X-CSRF-Token"
