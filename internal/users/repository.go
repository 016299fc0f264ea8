package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kristianfreeman/saas-starter/internal/platform/db"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

const selectColumns = "id, email, name, role, is_active, created_at, updated_at"

// Repository provides PostgreSQL-backed profile persistence. It also serves
// as the authorizer's role source: one role lookup per cache miss.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns one profile.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	return r.scan(r.pool.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM users WHERE id = $1", id))
}

// List returns a page of profiles ordered by creation time, plus the total
// count.
func (r *Repository) List(ctx context.Context, page shared.Page) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		"SELECT "+selectColumns+" FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UpdateName changes the caller's display name.
func (r *Repository) UpdateName(ctx context.Context, id, name string) (User, error) {
	return r.scan(r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns, id, name))
}

// Update applies the admin-editable fields in one statement. Nil fields keep
// their current value, so a role change and an activation toggle either both
// land or neither does.
func (r *Repository) Update(ctx context.Context, id string, active *bool, role *string) (User, error) {
	return r.scan(r.pool.QueryRow(ctx, `
		UPDATE users SET
			is_active = COALESCE($2, is_active),
			role = COALESCE($3, role),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns, id, active, role))
}

// Delete removes an account together with its API tokens and cached
// subscription row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM api_tokens WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("users: delete tokens: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM subscriptions WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("users: delete subscription: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("users: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UserRole returns the raw role string for the authorizer.
func (r *Repository) UserRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, "SELECT role FROM users WHERE id = $1", userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("users: role lookup: %w", err)
	}
	return role, nil
}

func (r *Repository) scan(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: query: %w", err)
	}
	return u, nil
}
