package errors

import (
	"errors"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountLocked        = errors.New("account is temporarily locked")
	ErrAccountInactive      = errors.New("account is not active")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrCSRFValidationFailed = errors.New("csrf token validation failed")
	ErrPermissionDenied     = errors.New("insufficient permissions")
	ErrWeakPassword         = errors.New("password does not meet security requirements")
	ErrSystemRoleDelete     = errors.New("system roles cannot be deleted")
	ErrSystemRoleMutation   = errors.New("only superadmin can modify system roles")
)
