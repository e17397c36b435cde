package dto

import (
	"time"
)

type UserOutput struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	FullName    string      `json:"full_name"`
	Role        *RoleOutput `json:"role,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
}

type RoleOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}
