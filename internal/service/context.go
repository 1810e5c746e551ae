package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// RiskWeights holds the additive point contributions of the risk model.
// The nominal component weights (40/30/20/10 percent) are labels only:
// the literal point values below are what the score is built from, and
// their sum can exceed 100 before clamping.
type RiskWeights struct {
	GoodPatternPoints float64
	PoorPatternPoints float64
	NewPatternPoints  float64

	HighOutstanding       float64 // threshold
	MediumOutstanding     float64 // threshold
	HighOutstandingPoints float64
	MedOutstandingPoints  float64
	LowOutstandingPoints  float64

	OverduePoints    float64
	DefaultedPoints  float64
	BaseStatusPoints float64

	ManyFailures       int // strictly more than this many failed payments
	SomeFailuresPoints float64
	ManyFailuresPoints float64

	MaxScore float64
}

// DefaultRiskWeights returns the production risk model constants.
func DefaultRiskWeights() *RiskWeights {
	return &RiskWeights{
		GoodPatternPoints: 10,
		PoorPatternPoints: 35,
		NewPatternPoints:  25,

		HighOutstanding:       100000,
		MediumOutstanding:     50000,
		HighOutstandingPoints: 25,
		MedOutstandingPoints:  15,
		LowOutstandingPoints:  5,

		OverduePoints:    20,
		DefaultedPoints:  30,
		BaseStatusPoints: 5,

		ManyFailures:       2,
		SomeFailuresPoints: 5,
		ManyFailuresPoints: 10,

		MaxScore: 100,
	}
}

// ContextBuilderOptions tunes the trailing windows of a context snapshot.
type ContextBuilderOptions struct {
	PaymentHistoryMonths   int
	InteractionWindowDays  int
	RecentInteractionLimit int
	SegmentVIPPrincipal    float64
}

// DefaultContextBuilderOptions mirrors the windows the rest of the system assumes.
func DefaultContextBuilderOptions() ContextBuilderOptions {
	return ContextBuilderOptions{
		PaymentHistoryMonths:   6,
		InteractionWindowDays:  30,
		RecentInteractionLimit: 10,
		SegmentVIPPrincipal:    500000,
	}
}

// ContextBuilder assembles risk/context snapshots for customers.
// It is the leaf of the pipeline: it depends only on the data store
// and a short-TTL cache keyed by customer id.
type ContextBuilder struct {
	store   port.CollectionsStore
	cache   port.Cache[*domain.CustomerContext]
	weights *RiskWeights
	opts    ContextBuilderOptions
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewContextBuilder creates the context builder with all dependencies injected.
func NewContextBuilder(
	store port.CollectionsStore,
	cache port.Cache[*domain.CustomerContext],
	weights *RiskWeights,
	opts ContextBuilderOptions,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ContextBuilder {
	if weights == nil {
		weights = DefaultRiskWeights()
	}
	return &ContextBuilder{
		store:   store,
		cache:   cache,
		weights: weights,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

func contextCacheKey(customerID int64) string {
	return fmt.Sprintf("customer_context_%d", customerID)
}

// BuildContext returns the context snapshot for a customer, from cache when
// fresh. A missing customer is a hard NotFound; loan/payment/interaction
// lookups fail soft to empty collections so a sparse customer still yields
// a valid, low-signal context.
func (b *ContextBuilder) BuildContext(ctx context.Context, customerID int64) (*domain.CustomerContext, error) {
	ctx, span := tracer.Start(ctx, "ContextBuilder.BuildContext")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", customerID))

	snapshot, hit, err := b.cache.GetOrCompute(contextCacheKey(customerID), func() (*domain.CustomerContext, error) {
		return b.assemble(ctx, customerID)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		b.metrics.IncrCacheHit("context")
	} else {
		b.metrics.IncrCacheMiss("context")
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot for a customer. Call after logging
// an interaction or payment so the next build sees fresh data.
func (b *ContextBuilder) Invalidate(customerID int64) {
	b.cache.Delete(contextCacheKey(customerID))
}

func (b *ContextBuilder) assemble(ctx context.Context, customerID int64) (*domain.CustomerContext, error) {
	customer, err := b.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	activeLoans, err := b.store.ListActiveLoans(ctx, customerID)
	if err != nil {
		b.logger.Warn("loan lookup failed, continuing with empty loans",
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		activeLoans = nil
	}

	history := b.paymentHistory(ctx, customerID)
	interactions := b.recentInteractions(ctx, customerID)

	snapshot := &domain.CustomerContext{
		CustomerID:         customer.ID,
		Name:               customer.Name,
		PhoneNumber:        customer.PhoneNumber,
		Email:              customer.Email,
		LanguagePreference: customer.LanguagePreference,
		Status:             customer.Status,
		Loans:              loanSnapshots(activeLoans),
		PaymentHistory:     history,
		RecentInteractions: interactions,
		CommPreferences: domain.CommunicationPreferences{
			Language:         customer.LanguagePreference,
			PreferredChannel: domain.ChannelVoice,
			Timezone:         "Asia/Kolkata",
			FormalityLevel:   "polite",
		},
		BestContactTime: bestContactTime(interactions),
	}
	snapshot.RiskScore = b.riskScore(customer, snapshot.TotalOutstanding(), history)
	snapshot.ConversationContext = conversationContext(customer, snapshot)

	b.metrics.ObserveRiskScore(snapshot.RiskScore)
	b.logger.Debug("customer context assembled",
		zap.Int64("customer_id", customerID),
		zap.Float64("risk_score", snapshot.RiskScore),
		zap.String("payment_pattern", history.PaymentPattern),
	)

	return snapshot, nil
}

// riskScore computes the 0-100 risk signal as the sum of four additive
// components, clamped at MaxScore.
func (b *ContextBuilder) riskScore(customer *domain.Customer, totalOutstanding float64, history domain.PaymentHistory) float64 {
	w := b.weights
	var score float64

	// Payment history component (nominal 40% weight).
	switch history.PaymentPattern {
	case domain.PaymentPatternGood:
		score += w.GoodPatternPoints
	case domain.PaymentPatternPoor:
		score += w.PoorPatternPoints
	default: // new customer
		score += w.NewPatternPoints
	}

	// Outstanding balance component (nominal 30% weight).
	switch {
	case totalOutstanding > w.HighOutstanding:
		score += w.HighOutstandingPoints
	case totalOutstanding > w.MediumOutstanding:
		score += w.MedOutstandingPoints
	default:
		score += w.LowOutstandingPoints
	}

	// Customer status component (nominal 20% weight).
	switch customer.Status {
	case domain.CustomerStatusOverdue:
		score += w.OverduePoints
	case domain.CustomerStatusDefaulted:
		score += w.DefaultedPoints
	default:
		score += w.BaseStatusPoints
	}

	// Recent failure component (nominal 10% weight).
	if history.FailedPayments > w.ManyFailures {
		score += w.ManyFailuresPoints
	} else if history.FailedPayments > 0 {
		score += w.SomeFailuresPoints
	}

	if score > w.MaxScore {
		return w.MaxScore
	}
	return score
}

// paymentHistory aggregates payments across all of the customer's loans
// over the trailing window. Any store failure degrades to an empty history.
func (b *ContextBuilder) paymentHistory(ctx context.Context, customerID int64) domain.PaymentHistory {
	empty := domain.PaymentHistory{PaymentPattern: domain.PaymentPatternNew}

	loans, err := b.store.ListLoans(ctx, customerID)
	if err != nil {
		b.logger.Warn("payment history: loan lookup failed",
			zap.Int64("customer_id", customerID), zap.Error(err))
		return empty
	}
	if len(loans) == 0 {
		return empty
	}

	loanIDs := make([]int64, 0, len(loans))
	for _, l := range loans {
		loanIDs = append(loanIDs, l.ID)
	}

	cutoff := time.Now().AddDate(0, 0, -b.opts.PaymentHistoryMonths*30)
	payments, err := b.store.ListPaymentsSince(ctx, loanIDs, cutoff)
	if err != nil {
		b.logger.Warn("payment history: payment lookup failed",
			zap.Int64("customer_id", customerID), zap.Error(err))
		return empty
	}

	return SummarizePayments(payments)
}

// SummarizePayments computes payment statistics and the derived pattern.
// Pattern is "new" only for an empty history, "good" above 0.8 success
// rate, "poor" otherwise.
func SummarizePayments(payments []domain.Payment) domain.PaymentHistory {
	h := domain.PaymentHistory{TotalPayments: len(payments)}
	for _, p := range payments {
		switch p.Status {
		case domain.PaymentStatusCompleted:
			h.SuccessfulPayments++
			h.TotalAmountPaid += p.Amount
		case domain.PaymentStatusFailed:
			h.FailedPayments++
		}
	}

	switch {
	case h.TotalPayments == 0:
		h.PaymentPattern = domain.PaymentPatternNew
	default:
		h.SuccessRate = float64(h.SuccessfulPayments) / float64(h.TotalPayments)
		if h.SuccessRate > 0.8 {
			h.PaymentPattern = domain.PaymentPatternGood
		} else {
			h.PaymentPattern = domain.PaymentPatternPoor
		}
	}
	return h
}

func (b *ContextBuilder) recentInteractions(ctx context.Context, customerID int64) []domain.InteractionSnapshot {
	since := time.Now().AddDate(0, 0, -b.opts.InteractionWindowDays)
	interactions, err := b.store.ListRecentInteractions(ctx, customerID, since, b.opts.RecentInteractionLimit)
	if err != nil {
		b.logger.Warn("interaction lookup failed, continuing with empty history",
			zap.Int64("customer_id", customerID), zap.Error(err))
		return nil
	}

	out := make([]domain.InteractionSnapshot, 0, len(interactions))
	for _, in := range interactions {
		out = append(out, domain.InteractionSnapshot{
			InteractionID:  in.ID,
			Type:           in.Type,
			Outcome:        in.Outcome,
			SentimentScore: in.SentimentScore,
			CallDuration:   in.CallDuration,
			Date:           in.CreatedAt,
			Status:         in.Status,
		})
	}
	return out
}

// bestContactTime is a coarse two-branch rule, not ML: customers who
// recently paid or promised to pay get the full business-hours window,
// everyone else gets mornings.
func bestContactTime(interactions []domain.InteractionSnapshot) string {
	for _, in := range interactions {
		if in.Outcome == domain.OutcomePaymentMade || in.Outcome == domain.OutcomePromisedPayment {
			return "10:00-16:00"
		}
	}
	return "10:00-12:00"
}

func conversationContext(customer *domain.Customer, snapshot *domain.CustomerContext) string {
	parts := []string{fmt.Sprintf("Customer: %s", customer.Name)}

	switch snapshot.PaymentHistory.PaymentPattern {
	case domain.PaymentPatternGood:
		parts = append(parts, "Good payment history")
	case domain.PaymentPatternPoor:
		parts = append(parts, "Irregular payment pattern")
	}

	if total := snapshot.TotalOutstanding(); total > 0 {
		parts = append(parts, fmt.Sprintf("Total outstanding: ₹%.2f", total))
	}

	return strings.Join(parts, " | ")
}

func loanSnapshots(loans []domain.Loan) []domain.LoanSnapshot {
	out := make([]domain.LoanSnapshot, 0, len(loans))
	for _, l := range loans {
		out = append(out, domain.LoanSnapshot{
			LoanID:      l.ID,
			LoanAmount:  l.LoanAmount,
			EMIAmount:   l.EMIAmount,
			DueDate:     l.NextDueDate,
			Outstanding: l.Outstanding,
			Status:      l.Status,
		})
	}
	return out
}

// GetCustomerSegments buckets all customers by risk score and flags VIPs
// (good payment pattern with principals above the VIP threshold).
func (b *ContextBuilder) GetCustomerSegments(ctx context.Context) (*domain.CustomerSegments, error) {
	ctx, span := tracer.Start(ctx, "ContextBuilder.GetCustomerSegments")
	defer span.End()

	customers, err := b.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	segments := &domain.CustomerSegments{
		HighRisk:   []int64{},
		MediumRisk: []int64{},
		LowRisk:    []int64{},
		VIP:        []int64{},
	}

	for _, c := range customers {
		snapshot, err := b.BuildContext(ctx, c.ID)
		if err != nil {
			b.logger.Warn("segmentation: skipping customer",
				zap.Int64("customer_id", c.ID), zap.Error(err))
			continue
		}

		switch {
		case snapshot.RiskScore > 70:
			segments.HighRisk = append(segments.HighRisk, c.ID)
		case snapshot.RiskScore > 40:
			segments.MediumRisk = append(segments.MediumRisk, c.ID)
		default:
			segments.LowRisk = append(segments.LowRisk, c.ID)
		}

		if snapshot.PaymentHistory.PaymentPattern == domain.PaymentPatternGood &&
			snapshot.TotalPrincipal() > b.opts.SegmentVIPPrincipal {
			segments.VIP = append(segments.VIP, c.ID)
		}
	}

	return segments, nil
}
