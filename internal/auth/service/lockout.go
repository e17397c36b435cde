package service

import (
	"context"
	"time"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/obs"
)

// LockoutGuard tracks failed login attempts and the lockout window per user.
// All counter state lives in the users table; the guard itself is stateless.
type LockoutGuard struct {
	users           domain.UserRepository
	maxAttempts     int
	window          time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

func NewLockoutGuard(users domain.UserRepository, maxAttempts int, window, lockoutDuration time.Duration) *LockoutGuard {
	return &LockoutGuard{
		users:           users,
		maxAttempts:     maxAttempts,
		window:          window,
		lockoutDuration: lockoutDuration,
		now:             time.Now,
	}
}

// CheckLocked reports whether the account is locked. An expired lock is
// cleared on read (lazy unlock) before returning false.
func (g *LockoutGuard) CheckLocked(ctx context.Context, user *domain.User) (bool, error) {
	if user.LockedUntil == nil {
		return false, nil
	}
	if g.now().Before(*user.LockedUntil) {
		return true, nil
	}

	// Lockout expired: reset the counter so the next failure starts fresh.
	if err := g.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return false, err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return false, nil
}

// RecordFailure bumps the failure counter and locks the account when the
// threshold is crossed. Returns true when this call locked the account.
func (g *LockoutGuard) RecordFailure(ctx context.Context, user *domain.User) (bool, error) {
	windowStart := g.now().Add(-g.window)
	attempts, err := g.users.IncrementFailedAttempts(ctx, user.ID, windowStart)
	if err != nil {
		return false, err
	}
	user.FailedLoginAttempts = attempts

	if attempts < g.maxAttempts {
		return false, nil
	}

	until := g.now().Add(g.lockoutDuration)
	if err := g.users.LockAccount(ctx, user.ID, until); err != nil {
		return false, err
	}
	user.LockedUntil = &until
	obs.ObserveLockout()
	return true, nil
}

// RecordSuccess clears the counter and any lock.
func (g *LockoutGuard) RecordSuccess(ctx context.Context, user *domain.User) error {
	if err := g.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return nil
}
