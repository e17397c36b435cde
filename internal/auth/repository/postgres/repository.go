package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
		u.id, u.email, u.password_hash, u.first_name, u.last_name,
		u.status, u.failed_login_attempts, u.last_failed_login_at, u.locked_until,
		u.password_changed_at, u.role_id, u.last_login_at, COALESCE(u.last_login_ip, ''),
		u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Status, &u.FailedLoginAttempts, &u.LastFailedLoginAt, &u.LockedUntil,
		&u.PasswordChangedAt, &u.RoleID, &u.LastLoginAt, &u.LastLoginIP,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT` + userColumns + `
		FROM users u
		WHERE u.email = $1
		LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByIDWithRole(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT` + userColumns + `,
		r.id, r.name, r.display_name, COALESCE(r.description, ''), r.is_system, r.is_active
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
		LIMIT 1`

	var (
		u    domain.User
		role domain.Role
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Status, &u.FailedLoginAttempts, &u.LastFailedLoginAt, &u.LockedUntil,
		&u.PasswordChangedAt, &u.RoleID, &u.LastLoginAt, &u.LastLoginIP,
		&u.CreatedAt, &u.UpdatedAt,
		&role.ID, &role.Name, &role.DisplayName, &role.Description, &role.IsSystem, &role.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user with role: %w", err)
	}

	perms, err := r.rolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	u.Role = &role
	return &u, nil
}

func (r *UserRepository) rolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	query := `
		SELECT p.id, p.name, p.resource, p.action, COALESCE(p.description, ''), p.is_system, p.is_active
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1 AND p.is_active = true
		ORDER BY p.name`

	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsSystem, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// IncrementFailedAttempts restarts the counter at one when the previous
// failure fell outside the rolling window, otherwise adds one. The whole
// update is a single statement so concurrent attempts cannot lose updates.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, userID string, windowStart time.Time) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = CASE
			WHEN last_failed_login_at IS NULL OR last_failed_login_at < $2 THEN 1
			ELSE failed_login_attempts + 1
		END,
		last_failed_login_at = now(),
		updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts`

	var attempts int
	if err := r.db.QueryRow(ctx, query, userID, windowStart).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("increment failed attempts: %w", err)
	}
	return attempts, nil
}

func (r *UserRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	query := `
		UPDATE users
		SET locked_until = $2, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, userID, until); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

func (r *UserRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, last_failed_login_at = NULL, locked_until = NULL, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID, ip string) error {
	query := `
		UPDATE users
		SET last_login_at = now(), last_login_ip = $2, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, userID, ip); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
