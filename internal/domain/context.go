package domain

import "time"

// ============================================================
// Customer context snapshot (assembled by the context builder)
// ============================================================

// Payment patterns summarizing a customer's reliability.
const (
	PaymentPatternGood = "good"
	PaymentPatternPoor = "poor"
	PaymentPatternNew  = "new"
)

// PaymentHistory aggregates payment records over a trailing window.
type PaymentHistory struct {
	TotalPayments      int     `json:"total_payments"`
	SuccessfulPayments int     `json:"successful_payments"`
	FailedPayments     int     `json:"failed_payments"`
	SuccessRate        float64 `json:"success_rate"`
	TotalAmountPaid    float64 `json:"total_amount_paid"`
	PaymentPattern     string  `json:"payment_pattern"`
}

// LoanSnapshot is the per-loan view embedded in a customer context.
type LoanSnapshot struct {
	LoanID      int64     `json:"loan_id"`
	LoanAmount  float64   `json:"loan_amount"`
	EMIAmount   float64   `json:"emi_amount"`
	DueDate     time.Time `json:"due_date"`
	Outstanding float64   `json:"outstanding_amount"`
	Status      string    `json:"status"`
}

// InteractionSnapshot is the per-interaction view embedded in a customer context.
type InteractionSnapshot struct {
	InteractionID  int64     `json:"interaction_id"`
	Type           string    `json:"type"`
	Outcome        string    `json:"outcome"`
	SentimentScore float64   `json:"sentiment_score"`
	CallDuration   int       `json:"call_duration"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
}

// CommunicationPreferences captures how and when a customer prefers contact.
type CommunicationPreferences struct {
	Language         string `json:"language"`
	PreferredChannel string `json:"preferred_channel"`
	Timezone         string `json:"timezone"`
	FormalityLevel   string `json:"formality_level"`
}

// CustomerContext is the risk/context snapshot assembled per request.
// It is never persisted as its own entity; the risk score is recomputed
// on every build (cached only briefly, keyed by customer id).
type CustomerContext struct {
	CustomerID          int64                    `json:"customer_id"`
	Name                string                   `json:"name"`
	PhoneNumber         string                   `json:"phone_number"`
	Email               string                   `json:"email,omitempty"`
	LanguagePreference  string                   `json:"language_preference"`
	RiskScore           float64                  `json:"risk_score"` // [0,100], higher = riskier
	Status              string                   `json:"status"`
	Loans               []LoanSnapshot           `json:"loans"`
	PaymentHistory      PaymentHistory           `json:"payment_history"`
	RecentInteractions  []InteractionSnapshot    `json:"recent_interactions"`
	CommPreferences     CommunicationPreferences `json:"communication_preferences"`
	BestContactTime     string                   `json:"best_contact_time"`
	ConversationContext string                   `json:"conversation_context"`
}

// TotalOutstanding sums outstanding balances over active loans only.
func (c *CustomerContext) TotalOutstanding() float64 {
	var total float64
	for _, l := range c.Loans {
		if l.Status == "active" {
			total += l.Outstanding
		}
	}
	return total
}

// TotalPrincipal sums loan principals across all loans in the snapshot.
func (c *CustomerContext) TotalPrincipal() float64 {
	var total float64
	for _, l := range c.Loans {
		total += l.LoanAmount
	}
	return total
}

// CustomerSegments buckets customers by risk score, plus a VIP segment
// (good payment pattern and principals above the VIP threshold).
type CustomerSegments struct {
	HighRisk   []int64 `json:"high_risk"`
	MediumRisk []int64 `json:"medium_risk"`
	LowRisk    []int64 `json:"low_risk"`
	VIP        []int64 `json:"vip"`
}
