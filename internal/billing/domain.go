// Package billing is a thin orchestration layer over an external payments
// platform. It holds no money logic of its own: subscription state lives with
// the provider, and this package only verifies webhooks, enqueues their
// processing, and proxies reads.
package billing

import (
	"context"
	"errors"
	"time"
)

// Subscription mirrors the provider's view of an account's plan.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
}

// Refund is the provider's acknowledgement of a refund request.
type Refund struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"paymentId"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrNoSubscription indicates the account has no subscription with the
// provider.
var ErrNoSubscription = errors.New("billing: no subscription")

// PaymentsClient is the narrow surface the API needs from the payments
// provider.
type PaymentsClient interface {
	Subscription(ctx context.Context, userID string) (Subscription, error)
	Refund(ctx context.Context, paymentID string, amountCents int64) (Refund, error)
}
