package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// PGSink appends events to the audit_logs table. The subsystem only ever
// inserts; existing rows are never updated.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink constructs a PGSink.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Insert appends one event.
func (s *PGSink) Insert(ctx context.Context, ev Event) error {
	var details []byte
	if len(ev.Details) > 0 {
		data, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("audit: marshal details: %w", err)
		}
		details = data
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (action, resource_type, resource_id, details, user_id, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
		ev.Action, ev.ResourceType, ev.ResourceID, details, ev.ActorID, ev.IPAddress, ev.UserAgent, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// TimelineFilters narrows the admin timeline listing.
type TimelineFilters struct {
	Action  string
	ActorID string
}

// Timeline lists recent events newest-first with paging.
func (s *PGSink) Timeline(ctx context.Context, filters TimelineFilters, page shared.Page) ([]Event, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if action := strings.TrimSpace(filters.Action); action != "" {
		args = append(args, action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if actor := strings.TrimSpace(filters.ActorID); actor != "" {
		args = append(args, actor)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	args = append(args, page.Limit, page.Offset())
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT action, resource_type, COALESCE(resource_id, ''), COALESCE(details, 'null'::jsonb),
		       COALESCE(user_id, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM audit_logs WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: timeline: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var details []byte
		if err := rows.Scan(&ev.Action, &ev.ResourceType, &ev.ResourceID, &details,
			&ev.ActorID, &ev.IPAddress, &ev.UserAgent, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("audit: scan: %w", err)
		}
		if len(details) > 0 && string(details) != "null" {
			_ = json.Unmarshal(details, &ev.Details)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit: rows: %w", err)
	}
	return events, total, nil
}

// Purge deletes events older than the retention horizon and returns the
// number removed. Called by the scheduled retention job, never by request
// handlers.
func (s *PGSink) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM audit_logs WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("audit: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
