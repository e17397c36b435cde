package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reyer3/Pulso-Back-sub001/config"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/dto"
	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/internal/ids"
	"github.com/reyer3/Pulso-Back-sub001/internal/obs"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

// AuthService orchestrates login, refresh, logout and CSRF issuance. All
// state lives in the datastore; the service itself is safe for concurrent
// use and carries only immutable configuration.
type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	codec  TokenGenerator
	hasher *PasswordHasher
	guard  *LockoutGuard
	audit  *AuditRecorder
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(
	users domain.UserRepository,
	tokens domain.TokenRepository,
	codec TokenGenerator,
	hasher *PasswordHasher,
	guard *LockoutGuard,
	audit *AuditRecorder,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		guard:  guard,
		audit:  audit,
		cfg:    cfg,
		now:    time.Now,
	}
}

// LoginResult carries the raw token material back to the HTTP layer, which
// decides between body and cookie delivery.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	CSRFToken    string
	ExpiresIn    int
	User         *domain.User
}

// Login authenticates credentials and mints the token set. Unknown emails
// and wrong passwords are indistinguishable to the caller; unknown emails
// burn a dummy hash comparison and do not feed any lockout bucket.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*LoginResult, error) {
	requestID := ids.New()
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.hasher.VerifyDummy()
		s.audit.Record(ctx, &domain.AuditEvent{
			EventType:   constant.EventLoginFailed,
			Description: fmt.Sprintf("login attempt for unknown email %s", maskEmail(email)),
			Result:      constant.ResultFailure,
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			RequestID:   requestID,
		})
		obs.ObserveLogin("invalid_credentials")
		return nil, autherror.ErrInvalidCredentials
	}

	locked, err := s.guard.CheckLocked(ctx, user)
	if err != nil {
		return nil, err
	}
	if locked {
		s.audit.Record(ctx, &domain.AuditEvent{
			UserID:      user.ID,
			EventType:   constant.EventLoginBlockedLocked,
			Description: fmt.Sprintf("login attempt on locked account %s", maskEmail(email)),
			Result:      constant.ResultFailure,
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			RequestID:   requestID,
		})
		obs.ObserveLogin("locked")
		return nil, autherror.ErrAccountLocked
	}

	if !user.IsActive() {
		// Treated as invalid credentials to avoid leaking account state.
		s.audit.Record(ctx, &domain.AuditEvent{
			UserID:      user.ID,
			EventType:   constant.EventLoginFailed,
			Description: fmt.Sprintf("login attempt on %s account %s", user.Status, maskEmail(email)),
			Result:      constant.ResultFailure,
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			RequestID:   requestID,
		})
		obs.ObserveLogin("inactive")
		return nil, autherror.ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		lockedNow, gerr := s.guard.RecordFailure(ctx, user)
		if gerr != nil {
			return nil, gerr
		}
		s.audit.Record(ctx, &domain.AuditEvent{
			UserID:      user.ID,
			EventType:   constant.EventLoginFailed,
			Description: fmt.Sprintf("invalid password for %s", maskEmail(email)),
			Result:      constant.ResultFailure,
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			RequestID:   requestID,
		})
		if lockedNow {
			s.audit.Record(ctx, &domain.AuditEvent{
				UserID:      user.ID,
				EventType:   constant.EventAccountLocked,
				Description: fmt.Sprintf("account %s locked after %d failed attempts", maskEmail(email), user.FailedLoginAttempts),
				Result:      constant.ResultFailure,
				IPAddress:   input.IPAddress,
				UserAgent:   input.UserAgent,
				RequestID:   requestID,
			})
			obs.ObserveLogin("locked")
			return nil, autherror.ErrAccountLocked
		}
		obs.ObserveLogin("invalid_credentials")
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.guard.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}

	// Reload with role and permissions; GetByEmail returns the bare row.
	full, err := s.users.GetByIDWithRole(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if full != nil {
		user = full
	}

	result, err := s.mintTokenSet(ctx, user, requestID, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, input.IPAddress); err != nil {
		log.Printf("warn: failed to update last login for user %s: %v", user.ID, err)
	}

	s.audit.Record(ctx, &domain.AuditEvent{
		UserID:      user.ID,
		EventType:   constant.EventLoginSuccess,
		Description: fmt.Sprintf("user %s logged in", maskEmail(email)),
		Result:      constant.ResultSuccess,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		RequestID:   requestID,
	})
	obs.ObserveLogin("success")
	return result, nil
}

// Refresh rotates the refresh token: the old token is revoked before new
// material is issued, so a replayed old value always fails, with no grace
// window. Under concurrent submission the conditional revoke picks a single
// winner.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*LoginResult, error) {
	requestID := ids.New()
	tokenHash := HashOpaque(input.RefreshToken)

	record, err := s.tokens.FindValidRefresh(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if record == nil {
		s.audit.Record(ctx, &domain.AuditEvent{
			EventType:   constant.EventTokenRefresh,
			Description: "refresh attempt with unknown, expired or revoked token",
			Result:      constant.ResultFailure,
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			RequestID:   requestID,
		})
		obs.ObserveTokenRefresh("invalid")
		return nil, autherror.ErrInvalidToken
	}

	rotated, err := s.tokens.RevokeRefresh(ctx, tokenHash, constant.RevokeReasonRotated)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Lost the rotation race: someone already used this token.
		obs.ObserveTokenRefresh("replayed")
		return nil, autherror.ErrInvalidToken
	}

	user, err := s.users.GetByIDWithRole(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() || user.IsLocked(s.now()) {
		obs.ObserveTokenRefresh("invalid")
		return nil, autherror.ErrInvalidToken
	}

	result, err := s.mintTokenSet(ctx, user, requestID, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEvent{
		UserID:      user.ID,
		EventType:   constant.EventTokenRefresh,
		Description: fmt.Sprintf("tokens rotated for %s", maskEmail(user.Email)),
		Result:      constant.ResultSuccess,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		RequestID:   requestID,
	})
	obs.ObserveTokenRefresh("success")
	return result, nil
}

// mintTokenSet issues the access token and persists the refresh and CSRF
// records before anything is returned, so a caller never holds an access
// token whose companion records failed to store.
func (s *AuthService) mintTokenSet(ctx context.Context, user *domain.User, requestID, ip, userAgent string) (*LoginResult, error) {
	accessToken, _, err := s.codec.IssueAccessToken(user.ID, user.Email, user.RoleName())
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.tokens.StoreRefresh(ctx, &domain.RefreshToken{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TokenHash:  refreshHash,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL()),
		DeviceInfo: userAgent,
		IPAddress:  ip,
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}

	rawCSRF, err := s.IssueCSRF(ctx, user.ID, requestID, ip)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		CSRFToken:    rawCSRF,
		ExpiresIn:    int(s.codec.AccessTokenTTL().Seconds()),
		User:         user,
	}, nil
}

// Logout revokes the refresh token when one is presented. It always succeeds
// from the caller's perspective: a missing or already-revoked token still
// results in cleared client state.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken, userID, ip, userAgent string) {
	if rawRefreshToken != "" {
		if _, err := s.tokens.RevokeRefresh(ctx, HashOpaque(rawRefreshToken), constant.RevokeReasonLogout); err != nil {
			log.Printf("warn: failed to revoke refresh token on logout: %v", err)
		}
	}

	s.audit.Record(ctx, &domain.AuditEvent{
		UserID:      userID,
		EventType:   constant.EventLogout,
		Description: "user logged out",
		Result:      constant.ResultSuccess,
		IPAddress:   ip,
		UserAgent:   userAgent,
		RequestID:   ids.New(),
	})
}

// RevokeAllSessions revokes every active refresh token of a user, e.g. after
// a password change or a suspected compromise.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID, reason string) (int64, error) {
	return s.tokens.RevokeAllForUser(ctx, userID, reason)
}

// IssueCSRF generates and persists a single-use CSRF token bound to the
// session. The raw value is returned; only the hash is stored.
func (s *AuthService) IssueCSRF(ctx context.Context, userID, sessionID, ip string) (string, error) {
	raw, hash, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.tokens.StoreCSRF(ctx, &domain.CSRFToken{
		ID:        uuid.NewString(),
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: now.Add(s.cfg.CSRFTokenTTL()),
		SessionID: sessionID,
		IPAddress: ip,
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyCSRF implements the double-submit check: the header copy must match
// the cookie copy, and the stored token is consumed atomically so a second
// submission of the same token fails.
func (s *AuthService) VerifyCSRF(ctx context.Context, headerToken, cookieToken, userID, ip string) error {
	requestID := ids.New()

	fail := func(description string) error {
		s.audit.Record(ctx, &domain.AuditEvent{
			UserID:      userID,
			EventType:   constant.EventCSRFViolation,
			Description: description,
			Result:      constant.ResultFailure,
			IPAddress:   ip,
			RequestID:   requestID,
		})
		obs.ObserveCSRFConsume("failure")
		return autherror.ErrCSRFValidationFailed
	}

	if headerToken == "" {
		return fail("missing csrf token in header")
	}
	if cookieToken == "" {
		return fail("missing csrf token in cookie")
	}
	if !ConstantTimeEqual(HashOpaque(headerToken), HashOpaque(cookieToken)) {
		return fail("csrf token mismatch between header and cookie")
	}

	consumed, err := s.tokens.ConsumeCSRF(ctx, HashOpaque(cookieToken))
	if err != nil {
		return err
	}
	if !consumed {
		return fail("csrf token already used, expired or unknown")
	}

	obs.ObserveCSRFConsume("success")
	return nil
}

// Authenticate verifies an access token and builds the per-request
// authorization context from freshly loaded user, role and permissions.
func (s *AuthService) Authenticate(ctx context.Context, rawToken, ip, userAgent string) (*domain.AuthContext, error) {
	claims, err := s.codec.VerifyAccessToken(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByIDWithRole(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, autherror.ErrAccountInactive
	}
	if user.IsLocked(s.now()) {
		return nil, autherror.ErrAccountLocked
	}

	return domain.NewAuthContext(user, claims.ID, ip, userAgent, ids.New()), nil
}

// SweepExpiredTokens removes expired refresh and CSRF rows. Intended to run
// periodically; repeated runs are harmless.
func (s *AuthService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	obs.ObserveSweep(deleted)
	if deleted > 0 {
		log.Printf("token sweep removed %d expired rows", deleted)
	}
	return deleted, nil
}

// maskEmail hides most of an address before it reaches logs or audit rows.
func maskEmail(email string) string {
	const visible = 4
	if len(email) <= visible {
		return strings.Repeat("*", len(email))
	}
	return strings.Repeat("*", len(email)-visible) + email[len(email)-visible:]
}
