package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository caches provider subscription state locally. Rows are maintained
// solely by webhook processing; request handlers only read.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores the latest subscription state for a user.
func (r *Repository) Upsert(ctx context.Context, sub Subscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, plan, status, current_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("billing: upsert subscription: %w", err)
	}
	return nil
}

// ForUser returns the cached subscription for a user.
func (r *Repository) ForUser(ctx context.Context, userID string) (Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, plan, status, current_period_end
		FROM subscriptions WHERE user_id = $1`, userID).
		Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.CurrentPeriodEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrNoSubscription
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("billing: subscription lookup: %w", err)
	}
	return sub, nil
}
