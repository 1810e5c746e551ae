package domain

import "time"

// ============================================================
// Payment links & messaging
// ============================================================

// PaymentLink is a gateway payment link handed to a customer.
type PaymentLink struct {
	PaymentID      string    `json:"payment_id"`
	ShortURL       string    `json:"payment_link"`
	Token          string    `json:"token,omitempty"` // signed link token
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	ExpiresAt      time.Time `json:"expires_at"`
	Status         string    `json:"status"`
	PaymentMethods []string  `json:"payment_methods"`
}

// PaymentLinkRequest is the body of POST /v1/payments/link.
type PaymentLinkRequest struct {
	CustomerID int64    `json:"customer_id"`
	LoanID     int64    `json:"loan_id"`
	Amount     *float64 `json:"amount,omitempty"` // overrides the EMI amount
}

// SendLinkRequest is the body of POST /v1/payments/send-link.
type SendLinkRequest struct {
	CustomerID int64  `json:"customer_id"`
	LoanID     int64  `json:"loan_id"`
	Channel    string `json:"channel"` // sms, whatsapp
}

// MessageReceipt is the result of dispatching one outbound message.
type MessageReceipt struct {
	MessageID string `json:"message_id"`
	Channel   string `json:"channel"`
	To        string `json:"to"`
	Body      string `json:"message"`
	Status    string `json:"status"`
}

// PaymentVerification is the result of POST /v1/payments/{paymentId}/verify.
type PaymentVerification struct {
	PaymentID        string    `json:"payment_id"`
	Status           string    `json:"status"`
	Amount           float64   `json:"amount"`
	TransactionDate  time.Time `json:"transaction_date,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	ConfirmationSent bool      `json:"confirmation_sent"`
}

// GatewayPayment is the gateway's view of a payment used during verification.
type GatewayPayment struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Method           string `json:"method"`
	Captured         bool   `json:"captured"`
	FailureReason    string `json:"failure_reason,omitempty"`
}
