package service

import (
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"

	"go.uber.org/zap"
)

// DecisionEngine maps a conversation result plus a customer context to a
// prioritized next action. It never fails: unknown outcomes fall back to
// the "unclear" rule, and the context is trusted as built.
//
// Evaluation is a pure pipeline — base lookup, contextual adjustment,
// escalation check, channel and tone selection — so each stage is
// independently testable and the order dependence is explicit.
type DecisionEngine struct {
	rules   *Rules
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewDecisionEngine creates the engine with an injected rule set.
// Passing nil rules selects the defaults.
func NewDecisionEngine(rules *Rules, metrics *observability.Metrics, logger *zap.Logger) *DecisionEngine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &DecisionEngine{
		rules:   rules,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Decide produces the decision for one finished conversation. It is
// deterministic: identical inputs always yield an identical decision
// (modulo the follow-up timestamp anchor).
func (e *DecisionEngine) Decide(result domain.ConversationResult, customer *domain.CustomerContext) domain.Decision {
	base := baseDecision(e.rules, result.Outcome)
	adjusted := adjustForContext(e.rules, base, customer)
	escalate, reason := checkEscalation(e.rules, result, customer)

	decision := domain.Decision{
		NextAction:         adjusted.nextAction,
		Priority:           adjusted.priority,
		FollowUpHours:      adjusted.followUpHours,
		FollowUpDatetime:   e.now().Add(time.Duration(adjusted.followUpHours * float64(time.Hour))),
		EscalationNeeded:   escalate,
		EscalationReason:   reason,
		RecommendedChannel: recommendChannel(e.rules, result.Outcome, customer),
		MessageTone:        messageTone(e.rules, result.SentimentScore, customer),
		AdditionalActions:  additionalActions(e.rules, result.Outcome, customer),
	}

	e.metrics.IncrDecision(decision.NextAction)
	if decision.EscalationNeeded {
		e.metrics.IncrEscalation(decision.EscalationReason)
	}

	// Audit trail: decisions are ephemeral, the log is the record.
	e.logger.Info("decision made",
		zap.Int64("customer_id", customer.CustomerID),
		zap.String("outcome", result.Outcome),
		zap.String("next_action", decision.NextAction),
		zap.String("priority", decision.Priority),
		zap.Float64("follow_up_hours", decision.FollowUpHours),
		zap.Bool("escalation", decision.EscalationNeeded),
		zap.String("escalation_reason", decision.EscalationReason),
		zap.String("channel", decision.RecommendedChannel),
		zap.String("tone", decision.MessageTone),
	)

	return decision
}

// decisionState is the value threaded through the pipeline stages.
type decisionState struct {
	nextAction    string
	priority      string
	followUpHours float64
}

// baseDecision looks up the literal base rule for an outcome. Unknown
// outcomes map to the "unclear" rule — fail-open, not an error.
func baseDecision(rules *Rules, outcome string) decisionState {
	rule, ok := rules.Base[outcome]
	if !ok {
		rule = rules.Base[domain.OutcomeUnclear]
	}
	return decisionState{
		nextAction:    rule.NextAction,
		priority:      rule.Priority,
		followUpHours: rule.FollowUpHours,
	}
}

// adjustForContext applies the risk and history adjustments in a fixed
// order: risk caps first, then the pattern and contact-frequency
// multipliers on whatever value the caps produced. The order matters;
// do not reorder the steps.
func adjustForContext(rules *Rules, state decisionState, customer *domain.CustomerContext) decisionState {
	switch {
	case customer.RiskScore > rules.CriticalRiskScore:
		state.priority = domain.PriorityCritical
		if state.followUpHours > rules.CriticalCapHours {
			state.followUpHours = rules.CriticalCapHours
		}
	case customer.RiskScore > rules.HighRiskScore:
		state.priority = domain.PriorityHigh
		if state.followUpHours > rules.HighCapHours {
			state.followUpHours = rules.HighCapHours
		}
	}

	switch customer.PaymentHistory.PaymentPattern {
	case domain.PaymentPatternGood:
		state.followUpHours *= rules.GoodPatternFactor
	case domain.PaymentPatternPoor:
		state.followUpHours *= rules.PoorPatternFactor
	}

	if len(customer.RecentInteractions) > rules.FrequentContactMinimum {
		state.followUpHours *= rules.FrequentContactFactor
	}

	return state
}

// checkEscalation evaluates the escalation criteria in priority order;
// the first match wins.
func checkEscalation(rules *Rules, result domain.ConversationResult, customer *domain.CustomerContext) (bool, string) {
	switch {
	case customer.RiskScore > rules.EscalationRiskScore:
		return true, domain.EscalationHighRisk
	case result.SentimentScore < rules.NegativeSentiment:
		return true, domain.EscalationNegativeSentiment
	case failedAttempts(customer.RecentInteractions) >= rules.FailedAttemptMinimum:
		return true, domain.EscalationFailedAttempts
	case result.Outcome == domain.OutcomePaymentRefusal:
		return true, domain.EscalationPaymentRefusal
	case isVIP(rules, customer):
		return true, domain.EscalationVIP
	}
	return false, ""
}

func failedAttempts(interactions []domain.InteractionSnapshot) int {
	count := 0
	for _, in := range interactions {
		if in.Outcome == domain.OutcomeNoResponse || in.Outcome == domain.OutcomePaymentRefusal {
			count++
		}
	}
	return count
}

func isVIP(rules *Rules, customer *domain.CustomerContext) bool {
	return customer.TotalPrincipal() > rules.VIPPrincipal &&
		customer.PaymentHistory.PaymentPattern == domain.PaymentPatternGood
}

// recommendChannel picks the follow-up channel for the outcome. Customers
// who ignore voice get SMS; cooperative customers stay on voice; an
// unclear outcome switches channel once voice attempts pile up.
func recommendChannel(rules *Rules, outcome string, customer *domain.CustomerContext) string {
	switch outcome {
	case domain.OutcomeNoResponse, domain.OutcomeRescheduleRequested:
		return domain.ChannelSMS
	case domain.OutcomePaymentRequested, domain.OutcomePromisedPayment:
		return domain.ChannelVoice
	case domain.OutcomeUnclear:
		voiceAttempts := 0
		for _, in := range customer.RecentInteractions {
			if in.Type == "voice_call" {
				voiceAttempts++
			}
		}
		if voiceAttempts >= rules.VoiceAttemptLimit {
			return domain.ChannelSMS
		}
		return domain.ChannelVoice
	}
	return domain.ChannelVoice
}

// messageTone selects the communication tone, first match wins.
func messageTone(rules *Rules, sentiment float64, customer *domain.CustomerContext) string {
	switch {
	case sentiment > rules.FriendlySentiment:
		return domain.ToneFriendly
	case sentiment < rules.EmpatheticSentiment:
		return domain.ToneEmpathetic
	case customer.PaymentHistory.PaymentPattern == domain.PaymentPatternGood:
		return domain.ToneRespectful
	case customer.RiskScore > rules.FirmRiskScore:
		return domain.ToneFirmButPolite
	}
	return domain.ToneProfessional
}

// additionalActions lists the side effects to fire alongside the decision.
func additionalActions(rules *Rules, outcome string, customer *domain.CustomerContext) []string {
	actions := []string{domain.SideEffectUpdateRiskScore}

	if customer.RiskScore > rules.SMSReminderRiskScore {
		actions = append(actions, domain.SideEffectSendSMSReminder)
	}

	actions = append(actions, domain.SideEffectUpdateCRM)

	if outcome == domain.OutcomePromisedPayment || outcome == domain.OutcomePaymentDelay {
		actions = append(actions, domain.SideEffectSchedulePayReminder)
	}
	if outcome == domain.OutcomePaymentRequested || outcome == domain.OutcomePaymentAgreement {
		actions = append(actions, domain.SideEffectGeneratePaymentLink)
	}

	return actions
}
