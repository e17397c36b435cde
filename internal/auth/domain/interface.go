package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination=../../mocks/mock_repositories.go -package=mocks github.com/reyer3/Pulso-Back-sub001/internal/auth/domain UserRepository,TokenRepository,AuditRepository

// UserRepository manages user rows and their security counters.
type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIDWithRole loads the user together with its role and the role's
	// active permissions. Returns (nil, nil) when no user matches.
	GetByIDWithRole(ctx context.Context, id string) (*User, error)
	// IncrementFailedAttempts bumps the failure counter atomically. Attempts
	// older than windowStart restart the counter at one. Returns the counter
	// value after the update.
	IncrementFailedAttempts(ctx context.Context, userID string, windowStart time.Time) (int, error)
	LockAccount(ctx context.Context, userID string, until time.Time) error
	ResetFailedAttempts(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID, ip string) error
}

// TokenRepository persists refresh and CSRF tokens.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, rt *RefreshToken) error
	// FindValidRefresh returns (nil, nil) when no non-revoked, non-expired
	// row matches the hash.
	FindValidRefresh(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeRefresh marks the token revoked and reports whether this call
	// performed the revocation. Under concurrent rotation exactly one caller
	// observes true.
	RevokeRefresh(ctx context.Context, tokenHash, reason string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error)

	StoreCSRF(ctx context.Context, ct *CSRFToken) error
	// ConsumeCSRF atomically marks the token used. Returns false when the
	// token is missing, expired or already consumed.
	ConsumeCSRF(ctx context.Context, tokenHash string) (bool, error)

	// SweepExpired deletes expired refresh and CSRF rows and returns the
	// number of rows removed. Safe to run repeatedly.
	SweepExpired(ctx context.Context) (int64, error)
}

// AuditRepository appends immutable audit rows.
type AuditRepository interface {
	Append(ctx context.Context, event *AuditEvent) error
}
