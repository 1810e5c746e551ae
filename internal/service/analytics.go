package service

import (
	"context"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/port"

	"go.uber.org/zap"
)

// AnalyticsService aggregates payment and interaction records into
// reporting views over a trailing period.
type AnalyticsService struct {
	store  port.CollectionsStore
	logger *zap.Logger
}

// NewAnalyticsService creates an analytics service backed by the store.
func NewAnalyticsService(store port.CollectionsStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger}
}

// PaymentAnalytics summarizes payment volume and success over the last n days.
func (s *AnalyticsService) PaymentAnalytics(ctx context.Context, days int) (*domain.PaymentAnalytics, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.PaymentAnalytics")
	defer span.End()

	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	payments, err := s.store.ListAllPaymentsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	out := &domain.PaymentAnalytics{
		PeriodDays:         days,
		MethodDistribution: make(map[string]int),
	}

	for _, p := range payments {
		out.TotalPayments++
		switch p.Status {
		case domain.PaymentStatusCompleted:
			out.SuccessfulPayments++
			out.TotalAmountCollected += p.Amount
		case domain.PaymentStatusFailed:
			out.FailedPayments++
		default:
			out.PendingPayments++
		}
		method := p.Method
		if method == "" {
			method = "unknown"
		}
		out.MethodDistribution[method]++
	}

	if out.TotalPayments > 0 {
		out.SuccessRate = float64(out.SuccessfulPayments) / float64(out.TotalPayments)
	}
	if out.SuccessfulPayments > 0 {
		out.AveragePayment = out.TotalAmountCollected / float64(out.SuccessfulPayments)
	}

	return out, nil
}

// InteractionAnalytics summarizes call outcomes, channels, sentiment and
// escalations over the last n days.
func (s *AnalyticsService) InteractionAnalytics(ctx context.Context, days int) (*domain.InteractionAnalytics, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.InteractionAnalytics")
	defer span.End()

	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	interactions, err := s.store.ListAllInteractionsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	out := &domain.InteractionAnalytics{
		PeriodDays:          days,
		OutcomeDistribution: make(map[string]int),
		ChannelDistribution: make(map[string]int),
	}

	var sentimentSum float64
	var durationSum, escalations int
	for _, in := range interactions {
		out.TotalInteractions++
		outcome := in.Outcome
		if outcome == "" {
			outcome = "pending"
		}
		out.OutcomeDistribution[outcome]++
		channel := in.Type
		if channel == "" {
			channel = "unknown"
		}
		out.ChannelDistribution[channel]++
		sentimentSum += in.SentimentScore
		durationSum += in.CallDuration
		if in.Outcome == domain.OutcomePaymentRefusal {
			escalations++
		}
	}

	if out.TotalInteractions > 0 {
		n := float64(out.TotalInteractions)
		out.AverageSentiment = sentimentSum / n
		out.AverageCallDuration = float64(durationSum) / n
		out.EscalationRate = float64(escalations) / n
	}

	return out, nil
}
