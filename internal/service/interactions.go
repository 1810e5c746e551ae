package service

import (
	"context"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InteractionService persists interaction records and keeps the context
// cache honest: logging an interaction for a customer invalidates their
// cached snapshot so the next build sees it.
type InteractionService struct {
	store   port.CollectionsStore
	builder *ContextBuilder
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInteractionService creates the interaction service.
func NewInteractionService(store port.CollectionsStore, builder *ContextBuilder, metrics *observability.Metrics, logger *zap.Logger) *InteractionService {
	return &InteractionService{
		store:   store,
		builder: builder,
		metrics: metrics,
		logger:  logger,
	}
}

// LogInteraction records one contact attempt. The customer must exist;
// everything else is taken as reported by the channel.
func (s *InteractionService) LogInteraction(ctx context.Context, req *domain.NewInteractionRequest) (*domain.Interaction, error) {
	ctx, span := tracer.Start(ctx, "InteractionService.LogInteraction")
	defer span.End()

	if req.CustomerID <= 0 {
		return nil, &domain.ErrValidation{Field: "customer_id", Message: "must be a positive customer id"}
	}
	if req.Type == "" {
		return nil, &domain.ErrValidation{Field: "type", Message: "interaction type is required"}
	}

	if _, err := s.store.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	interaction := &domain.Interaction{
		CustomerID:      req.CustomerID,
		CallID:          uuid.New().String(),
		Type:            req.Type,
		ConversationLog: req.ConversationLog,
		SentimentScore:  req.SentimentScore,
		Outcome:         req.Outcome,
		CallDuration:    req.CallDuration,
		Status:          domain.CallStatusCompleted,
		CreatedAt:       time.Now(),
	}

	stored, err := s.store.CreateInteraction(ctx, interaction)
	if err != nil {
		return nil, err
	}

	// The cached snapshot predates this interaction; drop it.
	s.builder.Invalidate(req.CustomerID)
	s.metrics.IncrInteraction(stored.Outcome)

	s.logger.Info("interaction logged",
		zap.Int64("customer_id", stored.CustomerID),
		zap.String("call_id", stored.CallID),
		zap.String("type", stored.Type),
		zap.String("outcome", stored.Outcome),
		zap.Float64("sentiment", stored.SentimentScore),
	)

	return stored, nil
}
