package service

import (
	"context"
	"fmt"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

// stubStore is an in-memory CollectionsStore for tests. Error fields, when
// set, override the corresponding lookups.
type stubStore struct {
	customers    map[int64]*domain.Customer
	loans        []domain.Loan
	payments     []domain.Payment
	interactions []domain.Interaction

	customerErr    error
	loanErr        error
	paymentErr     error
	interactionErr error

	getCustomerCalls  int
	createdPayments   []domain.Payment
	updatedStatuses   map[int64]string
	updatedLoans      map[int64]float64
	loggedOutcomes    map[string]string
	nextID            int64
	createdInteracted []domain.Interaction
}

func newStubStore() *stubStore {
	return &stubStore{
		customers:       make(map[int64]*domain.Customer),
		updatedStatuses: make(map[int64]string),
		updatedLoans:    make(map[int64]float64),
		loggedOutcomes:  make(map[string]string),
	}
}

func (s *stubStore) GetCustomer(_ context.Context, customerID int64) (*domain.Customer, error) {
	s.getCustomerCalls++
	if s.customerErr != nil {
		return nil, s.customerErr
	}
	c, ok := s.customers[customerID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: fmt.Sprintf("%d", customerID)}
	}
	return c, nil
}

func (s *stubStore) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	if s.customerErr != nil {
		return nil, s.customerErr
	}
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubStore) ListLoans(_ context.Context, customerID int64) ([]domain.Loan, error) {
	if s.loanErr != nil {
		return nil, s.loanErr
	}
	var out []domain.Loan
	for _, l := range s.loans {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubStore) ListActiveLoans(ctx context.Context, customerID int64) ([]domain.Loan, error) {
	loans, err := s.ListLoans(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var out []domain.Loan
	for _, l := range loans {
		if l.Status == "active" {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubStore) GetLoan(_ context.Context, loanID int64) (*domain.Loan, error) {
	if s.loanErr != nil {
		return nil, s.loanErr
	}
	for _, l := range s.loans {
		if l.ID == loanID {
			loan := l
			return &loan, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "loan", ID: fmt.Sprintf("%d", loanID)}
}

func (s *stubStore) ListLoansDueBetween(_ context.Context, from, to time.Time) ([]domain.Loan, error) {
	if s.loanErr != nil {
		return nil, s.loanErr
	}
	var out []domain.Loan
	for _, l := range s.loans {
		if l.Status == "active" && !l.NextDueDate.Before(from) && !l.NextDueDate.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateLoanOutstanding(_ context.Context, loanID int64, outstanding float64) error {
	s.updatedLoans[loanID] = outstanding
	for i := range s.loans {
		if s.loans[i].ID == loanID {
			s.loans[i].Outstanding = outstanding
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "loan", ID: fmt.Sprintf("%d", loanID)}
}

func (s *stubStore) ListPaymentsSince(_ context.Context, loanIDs []int64, since time.Time) ([]domain.Payment, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	ids := make(map[int64]bool, len(loanIDs))
	for _, id := range loanIDs {
		ids[id] = true
	}
	var out []domain.Payment
	for _, p := range s.payments {
		if ids[p.LoanID] && !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) ListAllPaymentsSince(_ context.Context, since time.Time) ([]domain.Payment, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	var out []domain.Payment
	for _, p := range s.payments {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) CreatePayment(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	s.nextID++
	created := *p
	created.ID = s.nextID
	s.payments = append(s.payments, created)
	s.createdPayments = append(s.createdPayments, created)
	return &created, nil
}

func (s *stubStore) GetPaymentByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			payment := p
			return &payment, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "payment", ID: transactionID}
}

func (s *stubStore) UpdatePaymentStatus(_ context.Context, paymentID int64, status string, paymentDate *time.Time) error {
	s.updatedStatuses[paymentID] = status
	for i := range s.payments {
		if s.payments[i].ID == paymentID {
			s.payments[i].Status = status
			s.payments[i].PaymentDate = paymentDate
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
}

func (s *stubStore) ListRecentInteractions(_ context.Context, customerID int64, since time.Time, limit int) ([]domain.Interaction, error) {
	if s.interactionErr != nil {
		return nil, s.interactionErr
	}
	var out []domain.Interaction
	for _, in := range s.interactions {
		if in.CustomerID == customerID && !in.CreatedAt.Before(since) {
			out = append(out, in)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubStore) ListAllInteractionsSince(_ context.Context, since time.Time) ([]domain.Interaction, error) {
	if s.interactionErr != nil {
		return nil, s.interactionErr
	}
	var out []domain.Interaction
	for _, in := range s.interactions {
		if !in.CreatedAt.Before(since) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *stubStore) CreateInteraction(_ context.Context, in *domain.Interaction) (*domain.Interaction, error) {
	if s.interactionErr != nil {
		return nil, s.interactionErr
	}
	s.nextID++
	created := *in
	created.ID = s.nextID
	s.interactions = append(s.interactions, created)
	s.createdInteracted = append(s.createdInteracted, created)
	return &created, nil
}

func (s *stubStore) UpdateInteractionOutcome(_ context.Context, callID, outcome string, _ float64, _ string, _ int) error {
	s.loggedOutcomes[callID] = outcome
	return nil
}
