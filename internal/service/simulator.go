package service

import (
	"fmt"
	"strings"

	"github.com/collectwise/emi-assistant-go/internal/domain"

	"go.uber.org/zap"
)

// Simulator is the deterministic stand-in for the external voice channel.
// It scripts a short collection call from the customer's profile so the
// rest of the pipeline (decision, payments, audit) can run end to end
// without telephony or an LLM behind it.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a conversation simulator.
func NewSimulator(logger *zap.Logger) *Simulator {
	return &Simulator{logger: logger}
}

type conversationScript struct {
	greeting       string
	emiReminder    string
	paymentOptions string
	closing        string
}

var scripts = map[string]conversationScript{
	"en": {
		greeting:       "Hello %s, this is an automated call from your financial institution regarding your EMI payment.",
		emiReminder:    "Your EMI of ₹%.2f is due on %s. Would you like to make the payment now?",
		paymentOptions: "You can pay through our secure payment link, UPI, or net banking. Which option would you prefer?",
		closing:        "Thank you for your time. Have a great day!",
	},
	"hi": {
		greeting:       "नमस्ते %s, यह आपकी वित्तीय संस्था से EMI भुगतान के संबंध में एक स्वचालित कॉल है।",
		emiReminder:    "आपकी ₹%.2f की EMI %s को देय है। क्या आप अभी भुगतान करना चाहेंगे?",
		paymentOptions: "आप हमारे सुरक्षित भुगतान लिंक, UPI, या नेट बैंकिंग के माध्यम से भुगतान कर सकते हैं। आप कौन सा विकल्प पसंद करेंगे?",
		closing:        "आपके समय के लिए धन्यवाद। आपका दिन शुभ हो!",
	},
}

// responseType classifies the likely customer behavior from the profile.
func responseType(customer *domain.CustomerContext) string {
	pattern := customer.PaymentHistory.PaymentPattern
	switch {
	case pattern == domain.PaymentPatternGood && customer.RiskScore < 30:
		return "cooperative"
	case pattern == domain.PaymentPatternGood && customer.RiskScore < 60:
		return "hesitant"
	case customer.RiskScore > 70:
		return "non_responsive"
	default:
		return "hesitant"
	}
}

// Simulate produces the scripted conversation for a customer and an EMI.
// The outcome and sentiment depend only on the context, so repeated runs
// over the same snapshot give the same result.
func (s *Simulator) Simulate(customer *domain.CustomerContext, emiAmount float64, dueDate string) domain.ConversationResult {
	script, ok := scripts[customer.LanguagePreference]
	if !ok {
		script = scripts["en"]
	}

	log := []string{
		"Bot: " + fmt.Sprintf(script.greeting, customer.Name),
	}
	if emiAmount > 0 {
		log = append(log, "Bot: "+fmt.Sprintf(script.emiReminder, emiAmount, dueDate))
	}

	var outcome string
	var sentiment float64

	switch responseType(customer) {
	case "cooperative":
		log = append(log,
			"Customer: Yes, I would like to make the payment now.",
			"Bot: "+script.paymentOptions,
			"Customer: I'll use UPI. Please send me the payment link.",
		)
		outcome = domain.OutcomePaymentRequested
		sentiment = 0.8

	case "hesitant":
		log = append(log,
			"Customer: I'm having some financial difficulties. Can I pay in a few days?",
			"Bot: I understand your situation. When would be a good time for you to make the payment?",
			"Customer: Maybe by the end of this week.",
		)
		outcome = domain.OutcomePromisedPayment
		sentiment = 0.3

	case "unavailable":
		log = append(log,
			"Customer: I'm busy right now. Can you call later?",
			"Bot: Of course. When would be a convenient time to call you back?",
			"Customer: Tomorrow evening would be better.",
		)
		outcome = domain.OutcomeRescheduleRequested
		sentiment = 0.1

	default: // non_responsive
		log = append(log, "Customer: [No clear response or hung up]")
		outcome = domain.OutcomeNoResponse
		sentiment = -0.2
	}

	log = append(log, "Bot: "+script.closing)

	result := domain.ConversationResult{
		Outcome:         outcome,
		SentimentScore:  sentiment,
		ConversationLog: strings.Join(log, "\n"),
		CallDuration:    len(log) * 10, // rough seconds per exchange
		Summary:         fmt.Sprintf("Simulated call with %s ended with outcome %q", customer.Name, outcome),
	}

	s.logger.Debug("conversation simulated",
		zap.Int64("customer_id", customer.CustomerID),
		zap.String("outcome", outcome),
		zap.Float64("sentiment", sentiment),
	)

	return result
}
