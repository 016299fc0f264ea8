package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kristianfreeman/saas-starter/internal/audit"
)

// webhookEvent is the provider's callback envelope.
type webhookEvent struct {
	Type         string       `json:"type"`
	Subscription Subscription `json:"subscription"`
}

// Processor applies verified webhook payloads. It runs inside the worker, not
// the API process.
type Processor struct {
	logger   *slog.Logger
	repo     *Repository
	recorder *audit.Recorder
}

// NewProcessor constructs a Processor.
func NewProcessor(logger *slog.Logger, repo *Repository, recorder *audit.Recorder) *Processor {
	return &Processor{logger: logger, repo: repo, recorder: recorder}
}

// Process parses one webhook payload and updates local subscription state.
// Unknown event types are acknowledged and skipped so the provider does not
// retry them forever.
func (p *Processor) Process(ctx context.Context, payload []byte) error {
	var ev webhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("billing: parse webhook: %w", err)
	}
	switch ev.Type {
	case "subscription.created", "subscription.updated", "subscription.canceled":
		if ev.Subscription.UserID == "" {
			return fmt.Errorf("billing: webhook %s missing user id", ev.Type)
		}
		if err := p.repo.Upsert(ctx, ev.Subscription); err != nil {
			return err
		}
		p.recorder.Record(ctx, audit.SubscriptionEvent(audit.ActionSubscriptionUpdated,
			ev.Subscription.UserID, ev.Subscription.ID, nil,
			map[string]any{"event": ev.Type, "status": ev.Subscription.Status, "plan": ev.Subscription.Plan}))
		return nil
	default:
		p.logger.Info("webhook event skipped", slog.String("type", ev.Type))
		return nil
	}
}
