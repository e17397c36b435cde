package domain

import "time"

// RefreshToken is the persisted form of a refresh credential. Only the
// SHA-256 hash of the raw token is ever stored.
type RefreshToken struct {
	ID            string
	UserID        string
	TokenHash     string
	ExpiresAt     time.Time
	IsRevoked     bool
	RevokedAt     *time.Time
	RevokedReason string
	DeviceInfo    string
	IPAddress     string
	CreatedAt     time.Time
	LastUsedAt    *time.Time
}

// IsExpired reports whether the token lifetime has elapsed at the given time.
func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(rt.ExpiresAt)
}

// IsValid reports whether the token is neither expired nor revoked.
func (rt *RefreshToken) IsValid(now time.Time) bool {
	return !rt.IsExpired(now) && !rt.IsRevoked
}

// CSRFToken backs the double-submit CSRF defense. Single use: once consumed
// it stays invalid regardless of expiry.
type CSRFToken struct {
	ID        string
	TokenHash string
	UserID    string // empty for anonymous sessions
	ExpiresAt time.Time
	IsUsed    bool
	UsedAt    *time.Time
	SessionID string
	IPAddress string
	CreatedAt time.Time
}

// IsValid reports whether the token is neither expired nor consumed.
func (ct *CSRFToken) IsValid(now time.Time) bool {
	return now.Before(ct.ExpiresAt) && !ct.IsUsed
}
