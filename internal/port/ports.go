// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	GetOrCompute(key string, compute func() (T, error)) (T, bool, error)
	Set(key string, value T)
	Delete(key string)
}

// PaymentGateway creates and verifies payment links with an external
// payment provider (or its simulated stand-in).
type PaymentGateway interface {
	CreateLink(ctx context.Context, customer *domain.CustomerContext, amount float64, paymentID string) (*domain.PaymentLink, error)
	VerifyPayment(ctx context.Context, paymentID string) (*domain.GatewayPayment, error)
}

// Messenger dispatches outbound SMS and WhatsApp messages.
type Messenger interface {
	SendSMS(ctx context.Context, phoneNumber, body string) (*domain.MessageReceipt, error)
	SendWhatsApp(ctx context.Context, phoneNumber, body string) (*domain.MessageReceipt, error)
}

// CollectionsStore defines all data operations for the collections core.
// Implemented by the SQLite adapter (or any other persistence layer).
type CollectionsStore interface {
	// Customers
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	// Loans
	ListLoans(ctx context.Context, customerID int64) ([]domain.Loan, error)
	ListActiveLoans(ctx context.Context, customerID int64) ([]domain.Loan, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListLoansDueBetween(ctx context.Context, from, to time.Time) ([]domain.Loan, error)
	UpdateLoanOutstanding(ctx context.Context, loanID int64, outstanding float64) error

	// Payments
	ListPaymentsSince(ctx context.Context, loanIDs []int64, since time.Time) ([]domain.Payment, error)
	ListAllPaymentsSince(ctx context.Context, since time.Time) ([]domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status string, paymentDate *time.Time) error

	// Interactions
	ListRecentInteractions(ctx context.Context, customerID int64, since time.Time, limit int) ([]domain.Interaction, error)
	ListAllInteractionsSince(ctx context.Context, since time.Time) ([]domain.Interaction, error)
	CreateInteraction(ctx context.Context, in *domain.Interaction) (*domain.Interaction, error)
	UpdateInteractionOutcome(ctx context.Context, callID, outcome string, sentiment float64, log string, duration int) error
}
