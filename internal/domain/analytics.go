package domain

// ============================================================
// Analytics (trailing-window reports)
// ============================================================

// PaymentAnalytics summarizes payment activity over a trailing period.
type PaymentAnalytics struct {
	PeriodDays           int            `json:"period_days"`
	TotalPayments        int            `json:"total_payments"`
	SuccessfulPayments   int            `json:"successful_payments"`
	FailedPayments       int            `json:"failed_payments"`
	PendingPayments      int            `json:"pending_payments"`
	SuccessRate          float64        `json:"success_rate"`
	TotalAmountCollected float64        `json:"total_amount_collected"`
	MethodDistribution   map[string]int `json:"payment_method_distribution"`
	AveragePayment       float64        `json:"average_payment_amount"`
}

// InteractionAnalytics summarizes interaction activity over a trailing period.
type InteractionAnalytics struct {
	PeriodDays          int            `json:"period_days"`
	TotalInteractions   int            `json:"total_interactions"`
	OutcomeDistribution map[string]int `json:"outcome_distribution"`
	ChannelDistribution map[string]int `json:"channel_distribution"`
	AverageSentiment    float64        `json:"average_sentiment"`
	AverageCallDuration float64        `json:"average_call_duration_seconds"`
	EscalationRate      float64        `json:"escalation_rate"`
}
