package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

const paymentColumns = `id, loan_id, amount, payment_method, transaction_id,
	status, payment_date, created_at`

func scanPayment(row interface{ Scan(...any) error }) (domain.Payment, error) {
	var p domain.Payment
	var paymentDate sql.NullTime
	err := row.Scan(&p.ID, &p.LoanID, &p.Amount, &p.Method, &p.TransactionID,
		&p.Status, &paymentDate, &p.CreatedAt)
	if paymentDate.Valid {
		t := paymentDate.Time
		p.PaymentDate = &t
	}
	return p, err
}

// CreatePayment inserts a payment record and returns it with its id set.
func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (loan_id, amount, payment_method, transaction_id, status, payment_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.LoanID, p.Amount, p.Method, p.TransactionID, p.Status, p.PaymentDate, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create payment id: %w", err)
	}
	created := *p
	created.ID = id
	return &created, nil
}

// GetPaymentByTransactionID returns the payment with the given transaction id.
func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = ?`, transactionID)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "payment", ID: transactionID}
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatus sets the payment's status and, when provided, its
// settlement date.
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string, paymentDate *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, payment_date = ? WHERE id = ?`,
		status, paymentDate, paymentID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
	}
	return nil
}

// ListPaymentsSince returns payments against any of the given loans created
// at or after since.
func (s *Store) ListPaymentsSince(ctx context.Context, loanIDs []int64, since time.Time) ([]domain.Payment, error) {
	if len(loanIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(loanIDs)), ",")
	args := make([]any, 0, len(loanIDs)+1)
	for _, id := range loanIDs {
		args = append(args, id)
	}
	args = append(args, since)

	return s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE loan_id IN (`+placeholders+`) AND created_at >= ?
		 ORDER BY created_at DESC`, args...)
}

// ListAllPaymentsSince returns every payment created at or after since.
func (s *Store) ListAllPaymentsSince(ctx context.Context, since time.Time) ([]domain.Payment, error) {
	return s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE created_at >= ? ORDER BY created_at DESC`,
		since)
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
