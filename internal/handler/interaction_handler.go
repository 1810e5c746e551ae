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
// Interactions — POST /v1/interactions
// ============================================================

func createInteractionHandler(interactions *service.InteractionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/interactions")
		defer span.End()

		var req domain.NewInteractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int64("customer.id", req.CustomerID))

		created, err := interactions.LogInteraction(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ============================================================
// Analytics — GET /v1/analytics/payments, GET /v1/analytics/interactions
// ============================================================

func paymentAnalyticsHandler(analytics *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/payments")
		defer span.End()

		report, err := analytics.PaymentAnalytics(ctx, parseDaysQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func interactionAnalyticsHandler(analytics *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/interactions")
		defer span.End()

		report, err := analytics.InteractionAnalytics(ctx, parseDaysQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
