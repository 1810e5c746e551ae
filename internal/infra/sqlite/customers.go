package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

// GetCustomer returns one customer by id.
func (s *Store) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone_number, COALESCE(email, ''), language_preference,
		       risk_score, status, created_at, updated_at
		FROM customers WHERE id = ?`, customerID)

	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Email, &c.LanguagePreference,
		&c.RiskScore, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: fmt.Sprintf("%d", customerID)}
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns all customers ordered by id.
func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone_number, COALESCE(email, ''), language_preference,
		       risk_score, status, created_at, updated_at
		FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Email, &c.LanguagePreference,
			&c.RiskScore, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
