package domain

import (
	"time"

	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

// User is the authentication identity. Accounts are never physically deleted;
// the status field moves to inactive instead.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string

	Status              string
	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	LockedUntil         *time.Time
	PasswordChangedAt   time.Time

	RoleID string
	Role   *Role

	LastLoginAt *time.Time
	LastLoginIP string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins first and last name for display purposes.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether the lockout window is still open at the given time.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// IsActive reports whether the account may authenticate at all.
func (u *User) IsActive() bool {
	return u.Status == constant.UserStatusActive
}

// RoleName returns the machine name of the user's role, or empty when the
// role was not loaded.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// Role groups permissions. System roles are protected from deletion and from
// mutation by anyone below superadmin.
type Role struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	IsSystem    bool
	IsActive    bool
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is a fine-grained capability named resource.action.
type Permission struct {
	ID          string
	Name        string
	Resource    string
	Action      string
	Description string
	IsSystem    bool
	IsActive    bool
	CreatedAt   time.Time
}
