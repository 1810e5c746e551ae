package domain

import "time"

// ============================================================
// Conversation outcomes and decisions
// ============================================================

// Conversation outcome vocabulary. Anything outside this set is treated
// as OutcomeUnclear by the decision engine (fail-open).
const (
	OutcomePaymentAgreement    = "payment_agreement"
	OutcomePaymentRequested    = "payment_requested"
	OutcomePromisedPayment     = "promised_payment"
	OutcomePaymentDelay        = "payment_delay"
	OutcomeRescheduleRequested = "reschedule_requested"
	OutcomeNoResponse          = "no_response"
	OutcomePaymentRefusal      = "payment_refusal"
	OutcomeUnclear             = "unclear"
	OutcomePaymentMade         = "payment_made"
)

// Next actions the decision engine can recommend.
const (
	ActionSendPaymentLink  = "send_payment_link"
	ActionScheduleFollowUp = "schedule_follow_up"
	ActionScheduleCallback = "schedule_callback"
	ActionRetryCall        = "retry_call"
	ActionEscalateToHuman  = "escalate_to_human"
)

// Priorities, ordered low to critical.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Recommended channels.
const (
	ChannelVoice = "voice"
	ChannelSMS   = "sms"
)

// Message tones.
const (
	ToneFriendly      = "friendly"
	ToneEmpathetic    = "empathetic"
	ToneRespectful    = "respectful"
	ToneFirmButPolite = "firm_but_polite"
	ToneProfessional  = "professional"
)

// Escalation reasons, in check order.
const (
	EscalationHighRisk          = "high_risk_customer"
	EscalationNegativeSentiment = "negative_customer_sentiment"
	EscalationFailedAttempts    = "multiple_failed_attempts"
	EscalationPaymentRefusal    = "payment_refusal"
	EscalationVIP               = "vip_customer_handling"
)

// Side-effect tags attached to a decision.
const (
	SideEffectUpdateRiskScore     = "update_risk_score"
	SideEffectUpdateCRM           = "update_crm"
	SideEffectSendSMSReminder     = "send_sms_reminder"
	SideEffectSchedulePayReminder = "schedule_payment_reminder"
	SideEffectGeneratePaymentLink = "generate_payment_link"
)

// ConversationResult is what a finished conversation (real or simulated)
// hands to the decision engine.
type ConversationResult struct {
	CallID          string  `json:"call_id,omitempty"`
	Outcome         string  `json:"outcome"`
	SentimentScore  float64 `json:"sentiment_score"` // [-1,1]
	ConversationLog string  `json:"conversation_log,omitempty"`
	CallDuration    int     `json:"call_duration,omitempty"`
	Summary         string  `json:"summary,omitempty"`
}

// Decision is the engine's output: a prioritized next action plus
// escalation, channel and tone guidance. Computed fresh per interaction,
// logged for audit, never a mutable record.
type Decision struct {
	NextAction         string    `json:"next_action"`
	Priority           string    `json:"priority"`
	FollowUpDatetime   time.Time `json:"follow_up_datetime"`
	FollowUpHours      float64   `json:"follow_up_hours"`
	EscalationNeeded   bool      `json:"escalation_needed"`
	EscalationReason   string    `json:"escalation_reason,omitempty"`
	RecommendedChannel string    `json:"recommended_channel"`
	MessageTone        string    `json:"message_tone"`
	AdditionalActions  []string  `json:"additional_actions"`
}

// DecisionRequest is the body of POST /v1/decisions.
type DecisionRequest struct {
	CustomerID   int64              `json:"customer_id"`
	Conversation ConversationResult `json:"conversation"`
}

// CallResult is returned by POST /v1/calls/initiate: the simulated
// conversation plus the resulting decision.
type CallResult struct {
	CallID       string             `json:"call_id"`
	CustomerID   int64              `json:"customer_id"`
	Status       string             `json:"status"`
	Conversation ConversationResult `json:"conversation"`
	Decision     *Decision          `json:"decision"`
}
