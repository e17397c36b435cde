package service

import "time"

// Test hooks for pinning the clock.

func (ts *TokenService) SetNow(now func() time.Time) { ts.now = now }

func (g *LockoutGuard) SetNow(now func() time.Time) { g.now = now }

func (s *AuthService) SetNow(now func() time.Time) { s.now = now }

func (a *AuditRecorder) SetNow(now func() time.Time) { a.now = now }
