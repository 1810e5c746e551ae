package service

import (
	"context"
	"fmt"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// messageTemplates holds the customer-facing message formats per language.
// Placeholders, in order: name, link, amount, due date.
type messageTemplates struct {
	paymentLink     string
	paymentSuccess  string
	paymentFailed   string
	paymentReminder string
}

var templates = map[string]messageTemplates{
	"en": {
		paymentLink:     "Hi %s, your EMI payment link: %s. Amount: ₹%.2f. Due: %s. Pay securely now.",
		paymentSuccess:  "Thank you %s! Your EMI payment of ₹%.2f has been successfully processed. Transaction ID: %s",
		paymentFailed:   "Hi %s, your payment of ₹%.2f could not be processed. Please try again or contact support.",
		paymentReminder: "Reminder: Your EMI of ₹%.2f is due on %s. Pay now: %s",
	},
	"hi": {
		paymentLink:     "नमस्ते %s, आपका EMI भुगतान लिंक: %s। राशि: ₹%.2f। देय तिथि: %s। अभी सुरक्षित भुगतान करें।",
		paymentSuccess:  "धन्यवाद %s! आपका ₹%.2f का EMI भुगतान सफलतापूर्वक प्रोसेस हो गया है। लेनदेन ID: %s",
		paymentFailed:   "नमस्ते %s, आपका ₹%.2f का भुगतान प्रोसेस नहीं हो सका। कृपया पुनः प्रयास करें या सहायता से संपर्क करें।",
		paymentReminder: "अनुस्मारक: आपकी ₹%.2f की EMI %s को देय है। अभी भुगतान करें: %s",
	},
}

func templatesFor(language string) messageTemplates {
	if t, ok := templates[language]; ok {
		return t
	}
	return templates["en"]
}

// LinkClaims is the signed payload embedded in a payment link token.
type LinkClaims struct {
	LoanID int64   `json:"loan_id"`
	Amount float64 `json:"amount"`
	jwt.RegisteredClaims
}

// PaymentService creates and verifies payment links and dispatches them
// to customers over SMS or WhatsApp.
type PaymentService struct {
	store         port.CollectionsStore
	gateway       port.PaymentGateway
	messenger     port.Messenger
	builder       *ContextBuilder
	signingSecret []byte
	linkTTL       time.Duration
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewPaymentService creates the payment service with all dependencies injected.
func NewPaymentService(
	store port.CollectionsStore,
	gateway port.PaymentGateway,
	messenger port.Messenger,
	builder *ContextBuilder,
	signingSecret string,
	linkTTL time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PaymentService {
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}
	return &PaymentService{
		store:         store,
		gateway:       gateway,
		messenger:     messenger,
		builder:       builder,
		signingSecret: []byte(signingSecret),
		linkTTL:       linkTTL,
		metrics:       metrics,
		logger:        logger,
	}
}

// CreatePaymentLink builds a signed payment link for a loan's EMI (or a
// custom amount), records the pending payment, and returns the link.
func (s *PaymentService) CreatePaymentLink(ctx context.Context, customerID, loanID int64, customAmount *float64) (*domain.PaymentLink, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.CreatePaymentLink")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", customerID), attribute.Int64("loan.id", loanID))

	snapshot, err := s.builder.BuildContext(ctx, customerID)
	if err != nil {
		return nil, err
	}

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.CustomerID != customerID {
		return nil, &domain.ErrValidation{Field: "loan_id", Message: "loan does not belong to this customer"}
	}

	amount := loan.EMIAmount
	if customAmount != nil && *customAmount > 0 {
		amount = *customAmount
	}

	paymentID := uuid.New().String()
	expiresAt := time.Now().Add(s.linkTTL)

	token, err := s.signLinkToken(customerID, loanID, amount, paymentID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign link token: %w", err)
	}

	link, err := s.gateway.CreateLink(ctx, snapshot, amount, paymentID)
	if err != nil {
		s.metrics.IncrExternalError("gateway")
		return nil, err
	}
	link.Token = token

	if _, err := s.store.CreatePayment(ctx, &domain.Payment{
		LoanID:        loanID,
		Amount:        amount,
		Method:        "payment_link",
		TransactionID: paymentID,
		Status:        domain.PaymentStatusPending,
		CreatedAt:     time.Now(),
	}); err != nil {
		return nil, err
	}

	s.logger.Info("payment link created",
		zap.Int64("customer_id", customerID),
		zap.Int64("loan_id", loanID),
		zap.String("payment_id", paymentID),
		zap.Float64("amount", amount),
	)

	return link, nil
}

func (s *PaymentService) signLinkToken(customerID, loanID int64, amount float64, paymentID string, expiresAt time.Time) (string, error) {
	claims := LinkClaims{
		LoanID: loanID,
		Amount: amount,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", customerID),
			ID:        paymentID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "emi-assistant",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
}

// ParseLinkToken validates a payment link token and returns its claims.
// Used by the (external) payment page callback to trust the link contents.
func (s *PaymentService) ParseLinkToken(token string) (*LinkClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &LinkClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrValidation{Field: "token", Message: err.Error()}
	}
	claims, ok := parsed.Claims.(*LinkClaims)
	if !ok || !parsed.Valid {
		return nil, &domain.ErrValidation{Field: "token", Message: "invalid link token"}
	}
	return claims, nil
}

// SendPaymentLink creates a link and dispatches it over the requested channel.
func (s *PaymentService) SendPaymentLink(ctx context.Context, customerID, loanID int64, channel string) (*domain.MessageReceipt, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.SendPaymentLink")
	defer span.End()

	if channel != "sms" && channel != "whatsapp" {
		return nil, &domain.ErrValidation{Field: "channel", Message: "must be 'sms' or 'whatsapp'"}
	}

	snapshot, err := s.builder.BuildContext(ctx, customerID)
	if err != nil {
		return nil, err
	}

	link, err := s.CreatePaymentLink(ctx, customerID, loanID, nil)
	if err != nil {
		return nil, err
	}

	dueLabel := "soon"
	for _, l := range snapshot.Loans {
		if l.LoanID == loanID {
			dueLabel = l.DueDate.Format("02 Jan 2006")
			break
		}
	}

	t := templatesFor(snapshot.LanguagePreference)
	body := fmt.Sprintf(t.paymentLink, snapshot.Name, link.ShortURL, link.Amount, dueLabel)

	var receipt *domain.MessageReceipt
	if channel == "whatsapp" {
		receipt, err = s.messenger.SendWhatsApp(ctx, snapshot.PhoneNumber, body)
	} else {
		receipt, err = s.messenger.SendSMS(ctx, snapshot.PhoneNumber, body)
	}
	if err != nil {
		s.metrics.IncrExternalError("messenger")
		return nil, err
	}

	s.metrics.IncrMessageSent(channel)
	return receipt, nil
}

// VerifyPayment checks a pending payment against the gateway and settles
// the records: completed payments reduce the loan outstanding and send a
// confirmation; failures are marked and reported.
func (s *PaymentService) VerifyPayment(ctx context.Context, paymentID string) (*domain.PaymentVerification, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.VerifyPayment")
	defer span.End()

	payment, err := s.store.GetPaymentByTransactionID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	gw, err := s.gateway.VerifyPayment(ctx, paymentID)
	if err != nil {
		s.metrics.IncrExternalError("gateway")
		return nil, err
	}

	if !gw.Captured {
		if err := s.store.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusFailed, nil); err != nil {
			return nil, err
		}
		return &domain.PaymentVerification{
			PaymentID: paymentID,
			Status:    domain.PaymentStatusFailed,
			Amount:    payment.Amount,
			Reason:    gw.FailureReason,
		}, nil
	}

	now := time.Now()
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusCompleted, &now); err != nil {
		return nil, err
	}

	loan, err := s.store.GetLoan(ctx, payment.LoanID)
	if err == nil {
		outstanding := loan.Outstanding - payment.Amount
		if outstanding < 0 {
			outstanding = 0
		}
		if err := s.store.UpdateLoanOutstanding(ctx, loan.ID, outstanding); err != nil {
			s.logger.Error("failed to update loan outstanding",
				zap.Int64("loan_id", loan.ID), zap.Error(err))
		}
		// The snapshot's balances and history are stale now.
		s.builder.Invalidate(loan.CustomerID)
	}

	confirmationSent := s.sendConfirmation(ctx, payment, loan)

	s.logger.Info("payment verified",
		zap.String("payment_id", paymentID),
		zap.Float64("amount", payment.Amount),
		zap.Bool("confirmation_sent", confirmationSent),
	)

	return &domain.PaymentVerification{
		PaymentID:        paymentID,
		Status:           domain.PaymentStatusCompleted,
		Amount:           payment.Amount,
		TransactionDate:  now,
		ConfirmationSent: confirmationSent,
	}, nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, payment *domain.Payment, loan *domain.Loan) bool {
	if loan == nil {
		return false
	}

	customer, err := s.store.GetCustomer(ctx, loan.CustomerID)
	if err != nil {
		return false
	}

	t := templatesFor(customer.LanguagePreference)
	body := fmt.Sprintf(t.paymentSuccess, customer.Name, payment.Amount, payment.TransactionID)

	if _, err := s.messenger.SendSMS(ctx, customer.PhoneNumber, body); err != nil {
		s.metrics.IncrExternalError("messenger")
		s.logger.Warn("payment confirmation send failed",
			zap.Int64("customer_id", customer.ID), zap.Error(err))
		return false
	}
	s.metrics.IncrMessageSent("sms")
	return true
}

// GetPaymentStatus returns the current state of a payment by its
// transaction id.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.store.GetPaymentByTransactionID(ctx, paymentID)
}
