package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"

	"github.com/google/uuid"
)

type seedCustomer struct {
	name       string
	phone      string
	email      string
	lang       string
	loanAmount float64
	emi        float64
}

var seedCustomers = []seedCustomer{
	{"Rahul Sharma", "+919876543210", "rahul@example.com", "hi", 500000, 15000},
	{"Priya Patel", "+919876543211", "priya@example.com", "en", 300000, 12000},
	{"Suresh Kumar", "+919876543212", "suresh@example.com", "en", 400000, 18000},
	{"Anitha Reddy", "+919876543213", "anitha@example.com", "en", 250000, 10000},
	{"Vikram Singh", "+919876543214", "vikram@example.com", "hi", 600000, 25000},
}

// Seed populates the database with demo customers, loans and a little
// payment and interaction history. It is a no-op when customers already
// exist, so it is safe to call on every startup.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return fmt.Errorf("seed count: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	for i, c := range seedCustomers {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO customers (name, phone_number, email, language_preference, risk_score, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, 0, 'active', ?, ?)`,
			c.name, c.phone, c.email, c.lang, now, now)
		if err != nil {
			return fmt.Errorf("seed customer %q: %w", c.name, err)
		}
		customerID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		dueDate := now.AddDate(0, 0, i%5+1)
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO loans (customer_id, loan_amount, emi_amount, due_date, next_due_date, outstanding_amount, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 'active', ?)`,
			customerID, c.loanAmount, c.emi, dueDate, dueDate, c.loanAmount*0.8, now)
		if err != nil {
			return fmt.Errorf("seed loan for %q: %w", c.name, err)
		}
		loanID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		// A couple of settled EMIs so payment patterns aren't all "new".
		for m := 1; m <= 2; m++ {
			paid := now.AddDate(0, -m, 0)
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO payments (loan_id, amount, payment_method, transaction_id, status, payment_date, created_at)
				VALUES (?, ?, 'upi', ?, ?, ?, ?)`,
				loanID, c.emi, uuid.New().String(), domain.PaymentStatusCompleted, paid, paid); err != nil {
				return fmt.Errorf("seed payment for %q: %w", c.name, err)
			}
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO interactions (customer_id, call_id, type, conversation_log, sentiment_score, outcome, call_duration, status, created_at)
			VALUES (?, ?, 'voice_call', 'Agent: EMI reminder call.', 0.2, ?, 60, ?, ?)`,
			customerID, uuid.New().String(), domain.OutcomePromisedPayment, domain.CallStatusCompleted,
			now.AddDate(0, 0, -7)); err != nil {
			return fmt.Errorf("seed interaction for %q: %w", c.name, err)
		}
	}
	return nil
}
