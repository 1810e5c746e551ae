package domain

import "time"

// ============================================================
// Customer / Loan / Payment / Interaction records
// ============================================================

// Customer statuses.
const (
	CustomerStatusActive    = "active"
	CustomerStatusOverdue   = "overdue"
	CustomerStatusDefaulted = "defaulted"
	CustomerStatusClosed    = "closed"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Interaction call statuses.
const (
	CallStatusPending    = "pending"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
)

// Customer is a borrower with one or more EMI loans.
type Customer struct {
	ID                 int64     `json:"customer_id"`
	Name               string    `json:"name"`
	PhoneNumber        string    `json:"phone_number"`
	Email              string    `json:"email,omitempty"`
	LanguagePreference string    `json:"language_preference"` // en, hi
	RiskScore          float64   `json:"risk_score"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Loan is a single EMI loan belonging to a customer.
type Loan struct {
	ID          int64     `json:"loan_id"`
	CustomerID  int64     `json:"customer_id"`
	LoanAmount  float64   `json:"loan_amount"` // principal
	EMIAmount   float64   `json:"emi_amount"`
	DueDate     time.Time `json:"due_date"`
	NextDueDate time.Time `json:"next_due_date"`
	Outstanding float64   `json:"outstanding_amount"`
	Status      string    `json:"status"` // active, closed
	CreatedAt   time.Time `json:"created_at"`
}

// Payment is one payment attempt against a loan.
type Payment struct {
	ID            int64      `json:"payment_id"`
	LoanID        int64      `json:"loan_id"`
	Amount        float64    `json:"amount"`
	Method        string     `json:"payment_method"` // upi, netbanking, card, wallet, payment_link
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Interaction is one contact attempt with a customer (call, SMS, WhatsApp).
type Interaction struct {
	ID              int64     `json:"interaction_id"`
	CustomerID      int64     `json:"customer_id"`
	CallID          string    `json:"call_id"`
	Type            string    `json:"type"` // voice_call, sms, whatsapp
	ConversationLog string    `json:"conversation_log,omitempty"`
	SentimentScore  float64   `json:"sentiment_score"`
	Outcome         string    `json:"outcome"`
	CallDuration    int       `json:"call_duration"` // seconds
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewInteractionRequest is the body of POST /v1/interactions.
type NewInteractionRequest struct {
	CustomerID      int64   `json:"customer_id"`
	Type            string  `json:"type"`
	ConversationLog string  `json:"conversation_log,omitempty"`
	SentimentScore  float64 `json:"sentiment_score"`
	Outcome         string  `json:"outcome"`
	CallDuration    int     `json:"call_duration"`
}
