package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
)

type TokenRepository struct {
	db DB
}

func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) StoreRefresh(ctx context.Context, rt *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, is_revoked, device_info, ip_address, created_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.DeviceInfo, rt.IPAddress, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// FindValidRefresh only matches rows that are neither revoked nor expired.
func (r *TokenRepository) FindValidRefresh(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, is_revoked,
		       revoked_at, COALESCE(revoked_reason, ''), COALESCE(device_info, ''),
		       COALESCE(ip_address, ''), created_at, last_used_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND is_revoked = false AND expires_at > now()
		LIMIT 1`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.IsRevoked,
		&rt.RevokedAt, &rt.RevokedReason, &rt.DeviceInfo,
		&rt.IPAddress, &rt.CreatedAt, &rt.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefresh is conditional on is_revoked=false so concurrent rotations
// of the same token produce exactly one winner.
func (r *TokenRepository) RevokeRefresh(ctx context.Context, tokenHash, reason string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true, revoked_at = now(), revoked_reason = $2
		WHERE token_hash = $1 AND is_revoked = false`

	tag, err := r.db.Exec(ctx, query, tokenHash, reason)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true, revoked_at = now(), revoked_reason = $2
		WHERE user_id = $1 AND is_revoked = false`

	tag, err := r.db.Exec(ctx, query, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) StoreCSRF(ctx context.Context, ct *domain.CSRFToken) error {
	query := `
		INSERT INTO csrf_tokens (id, token_hash, user_id, expires_at, is_used, session_id, ip_address, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, false, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		ct.ID, ct.TokenHash, ct.UserID, ct.ExpiresAt, ct.SessionID, ct.IPAddress, ct.CreatedAt)
	if err != nil {
		return fmt.Errorf("store csrf token: %w", err)
	}
	return nil
}

// ConsumeCSRF marks the token used in a single conditional update. Two
// concurrent submissions of the same token cannot both see a row change.
func (r *TokenRepository) ConsumeCSRF(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE csrf_tokens
		SET is_used = true, used_at = now()
		WHERE token_hash = $1 AND is_used = false AND expires_at > now()`

	tag, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("consume csrf token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SweepExpired deletes expired refresh and CSRF rows. Running it again with
// no new expirations reports zero.
func (r *TokenRepository) SweepExpired(ctx context.Context) (int64, error) {
	refreshTag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}

	csrfTag, err := r.db.Exec(ctx, `DELETE FROM csrf_tokens WHERE expires_at <= now()`)
	if err != nil {
		return refreshTag.RowsAffected(), fmt.Errorf("sweep csrf tokens: %w", err)
	}

	return refreshTag.RowsAffected() + csrfTag.RowsAffected(), nil
}
