package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

const loanColumns = `id, customer_id, loan_amount, emi_amount, due_date,
	next_due_date, outstanding_amount, status, created_at`

func scanLoan(row interface{ Scan(...any) error }) (domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(&l.ID, &l.CustomerID, &l.LoanAmount, &l.EMIAmount, &l.DueDate,
		&l.NextDueDate, &l.Outstanding, &l.Status, &l.CreatedAt)
	return l, err
}

// GetLoan returns one loan by id.
func (s *Store) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, loanID)

	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "loan", ID: fmt.Sprintf("%d", loanID)}
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &l, nil
}

// ListLoans returns all loans for a customer.
func (s *Store) ListLoans(ctx context.Context, customerID int64) ([]domain.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE customer_id = ? ORDER BY id`, customerID)
}

// ListActiveLoans returns the customer's loans with status 'active'.
func (s *Store) ListActiveLoans(ctx context.Context, customerID int64) ([]domain.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE customer_id = ? AND status = 'active' ORDER BY id`,
		customerID)
}

// ListLoansDueBetween returns active loans whose next due date falls in
// [from, to].
func (s *Store) ListLoansDueBetween(ctx context.Context, from, to time.Time) ([]domain.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE status = 'active' AND next_due_date >= ? AND next_due_date <= ?
		 ORDER BY next_due_date`, from, to)
}

// UpdateLoanOutstanding sets the loan's outstanding balance.
func (s *Store) UpdateLoanOutstanding(ctx context.Context, loanID int64, outstanding float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE loans SET outstanding_amount = ? WHERE id = ?`, outstanding, loanID)
	if err != nil {
		return fmt.Errorf("update loan outstanding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "loan", ID: fmt.Sprintf("%d", loanID)}
	}
	return nil
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
