package service

import (
	"fmt"
	"os"

	"github.com/collectwise/emi-assistant-go/internal/domain"

	"gopkg.in/yaml.v3"
)

// BaseRule is the literal base mapping for one conversation outcome.
type BaseRule struct {
	NextAction    string  `yaml:"next_action"`
	Priority      string  `yaml:"priority"`
	FollowUpHours float64 `yaml:"follow_up_hours"`
}

// Rules is the immutable rule set injected into the decision engine.
// Construct it once (DefaultRules or LoadRules) and never mutate it;
// the engine copies values out of it on every evaluation.
type Rules struct {
	// Base holds the outcome → base decision table. Outcomes missing
	// from the table fall back to Base["unclear"].
	Base map[string]BaseRule `yaml:"base"`

	// Priority overrides by risk score.
	CriticalRiskScore float64 `yaml:"critical_risk_score"` // above: critical, follow-up capped
	HighRiskScore     float64 `yaml:"high_risk_score"`     // above: high, follow-up capped
	CriticalCapHours  float64 `yaml:"critical_cap_hours"`
	HighCapHours      float64 `yaml:"high_cap_hours"`

	// Follow-up multipliers.
	GoodPatternFactor      float64 `yaml:"good_pattern_factor"`
	PoorPatternFactor      float64 `yaml:"poor_pattern_factor"`
	FrequentContactFactor  float64 `yaml:"frequent_contact_factor"`
	FrequentContactMinimum int     `yaml:"frequent_contact_minimum"` // strictly more than this many recent interactions

	// Escalation thresholds.
	EscalationRiskScore  float64 `yaml:"escalation_risk_score"`
	NegativeSentiment    float64 `yaml:"negative_sentiment"`
	FailedAttemptMinimum int     `yaml:"failed_attempt_minimum"`
	VIPPrincipal         float64 `yaml:"vip_principal"`

	// Side-effect thresholds.
	SMSReminderRiskScore float64 `yaml:"sms_reminder_risk_score"`

	// Tone thresholds.
	FriendlySentiment   float64 `yaml:"friendly_sentiment"`
	EmpatheticSentiment float64 `yaml:"empathetic_sentiment"`
	FirmRiskScore       float64 `yaml:"firm_risk_score"`

	// Channel selection.
	VoiceAttemptLimit int `yaml:"voice_attempt_limit"` // unclear outcome: this many prior voice calls switches to SMS
}

// DefaultRules returns the production rule set.
func DefaultRules() *Rules {
	return &Rules{
		Base: map[string]BaseRule{
			domain.OutcomePaymentAgreement:    {NextAction: domain.ActionSendPaymentLink, Priority: domain.PriorityHigh, FollowUpHours: 2},
			domain.OutcomePaymentRequested:    {NextAction: domain.ActionSendPaymentLink, Priority: domain.PriorityHigh, FollowUpHours: 2},
			domain.OutcomePromisedPayment:     {NextAction: domain.ActionScheduleFollowUp, Priority: domain.PriorityMedium, FollowUpHours: 24},
			domain.OutcomePaymentDelay:        {NextAction: domain.ActionScheduleFollowUp, Priority: domain.PriorityMedium, FollowUpHours: 48},
			domain.OutcomeRescheduleRequested: {NextAction: domain.ActionScheduleCallback, Priority: domain.PriorityLow, FollowUpHours: 24},
			domain.OutcomeNoResponse:          {NextAction: domain.ActionRetryCall, Priority: domain.PriorityMedium, FollowUpHours: 6},
			domain.OutcomePaymentRefusal:      {NextAction: domain.ActionEscalateToHuman, Priority: domain.PriorityHigh, FollowUpHours: 4},
			domain.OutcomeUnclear:             {NextAction: domain.ActionRetryCall, Priority: domain.PriorityLow, FollowUpHours: 12},
		},

		CriticalRiskScore: 80,
		HighRiskScore:     60,
		CriticalCapHours:  2,
		HighCapHours:      4,

		GoodPatternFactor:      1.5,
		PoorPatternFactor:      0.75,
		FrequentContactFactor:  1.25,
		FrequentContactMinimum: 3,

		EscalationRiskScore:  85,
		NegativeSentiment:    -0.5,
		FailedAttemptMinimum: 3,
		VIPPrincipal:         500000,

		SMSReminderRiskScore: 70,

		FriendlySentiment:   0.5,
		EmpatheticSentiment: -0.3,
		FirmRiskScore:       70,

		VoiceAttemptLimit: 2,
	}
}

// LoadRules reads a YAML rule file, overlaying it on the defaults so a
// partial file only overrides what it names.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if err := rules.validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *Rules) validate() error {
	if _, ok := r.Base[domain.OutcomeUnclear]; !ok {
		return &domain.ErrValidation{Field: "base", Message: "rule table must define the 'unclear' fallback"}
	}
	for outcome, rule := range r.Base {
		if rule.NextAction == "" || rule.Priority == "" {
			return &domain.ErrValidation{Field: "base." + outcome, Message: "next_action and priority are required"}
		}
		if rule.FollowUpHours <= 0 {
			return &domain.ErrValidation{Field: "base." + outcome, Message: "follow_up_hours must be positive"}
		}
	}
	return nil
}
