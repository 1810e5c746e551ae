package handler

import (
	"encoding/json"
	"net/http"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Decisions — POST /v1/decisions
// ============================================================

func decisionHandler(builder *service.ContextBuilder, engine *service.DecisionEngine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/decisions")
		defer span.End()

		var req domain.DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CustomerID <= 0 {
			writeError(w, http.StatusBadRequest, "customer_id is required")
			return
		}
		span.SetAttributes(
			attribute.Int64("customer.id", req.CustomerID),
			attribute.String("conversation.outcome", req.Conversation.Outcome),
		)

		snapshot, err := builder.BuildContext(ctx, req.CustomerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		decision := engine.Decide(req.Conversation, snapshot)
		writeJSON(w, http.StatusOK, decision)
	}
}
