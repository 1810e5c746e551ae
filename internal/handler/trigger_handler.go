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
// Triggers — GET /v1/triggers/due-emis, POST /v1/triggers/manual
// ============================================================

func dueEMIsHandler(trigger *service.TriggerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/triggers/due-emis")
		defer span.End()

		dueEMIs, err := trigger.CheckDueEMIs(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(dueEMIs),
			"due_emis": dueEMIs,
		})
	}
}

func manualTriggerHandler(trigger *service.TriggerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/triggers/manual")
		defer span.End()

		var req domain.TriggerRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		report, err := trigger.ManualTrigger(ctx, req.CustomerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ============================================================
// Calls — POST /v1/calls/initiate
// ============================================================

func initiateCallHandler(trigger *service.TriggerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calls/initiate")
		defer span.End()

		var req struct {
			CustomerID int64 `json:"customer_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CustomerID <= 0 {
			writeError(w, http.StatusBadRequest, "customer_id is required")
			return
		}
		span.SetAttributes(attribute.Int64("customer.id", req.CustomerID))

		call, err := trigger.InitiateCall(ctx, req.CustomerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, call)
	}
}
