package handler

import (
	"net/http"

	"github.com/collectwise/emi-assistant-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Customer context — GET /v1/customers/{customerId}/context
// ============================================================

func getContextHandler(builder *service.ContextBuilder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/context")
		defer span.End()

		customerID, err := parseIDParam(r, "customerId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("customer.id", customerID))

		snapshot, err := builder.BuildContext(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// ============================================================
// Admin — GET /v1/admin/customer-segments
// ============================================================

func customerSegmentsHandler(builder *service.ContextBuilder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/customer-segments")
		defer span.End()

		segments, err := builder.GetCustomerSegments(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, segments)
	}
}
