package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

const interactionColumns = `id, customer_id, call_id, type, COALESCE(conversation_log, ''),
	sentiment_score, outcome, call_duration, status, created_at`

func scanInteraction(row interface{ Scan(...any) error }) (domain.Interaction, error) {
	var in domain.Interaction
	err := row.Scan(&in.ID, &in.CustomerID, &in.CallID, &in.Type, &in.ConversationLog,
		&in.SentimentScore, &in.Outcome, &in.CallDuration, &in.Status, &in.CreatedAt)
	return in, err
}

// CreateInteraction inserts an interaction record and returns it with its id set.
func (s *Store) CreateInteraction(ctx context.Context, in *domain.Interaction) (*domain.Interaction, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (customer_id, call_id, type, conversation_log,
			sentiment_score, outcome, call_duration, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.CustomerID, in.CallID, in.Type, in.ConversationLog,
		in.SentimentScore, in.Outcome, in.CallDuration, in.Status, in.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create interaction id: %w", err)
	}
	created := *in
	created.ID = id
	return &created, nil
}

// UpdateInteractionOutcome records a call's result against its call id.
func (s *Store) UpdateInteractionOutcome(ctx context.Context, callID, outcome string, sentiment float64, log string, duration int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE interactions
		SET outcome = ?, sentiment_score = ?, conversation_log = ?, call_duration = ?, status = ?
		WHERE call_id = ?`,
		outcome, sentiment, log, duration, domain.CallStatusCompleted, callID)
	if err != nil {
		return fmt.Errorf("update interaction outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "interaction", ID: callID}
	}
	return nil
}

// ListRecentInteractions returns the customer's newest interactions since
// the given time, capped at limit.
func (s *Store) ListRecentInteractions(ctx context.Context, customerID int64, since time.Time, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE customer_id = ? AND created_at >= ?
		 ORDER BY created_at DESC LIMIT ?`, customerID, since, limit)
}

// ListAllInteractionsSince returns every interaction created at or after since.
func (s *Store) ListAllInteractionsSince(ctx context.Context, since time.Time) ([]domain.Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE created_at >= ? ORDER BY created_at DESC`,
		since)
}

func (s *Store) queryInteractions(ctx context.Context, query string, args ...any) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
