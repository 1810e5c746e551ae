package handler

import (
	"encoding/json"
	"net/http"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Payments
// POST /v1/payments/link
// POST /v1/payments/send-link
// POST /v1/payments/{paymentId}/verify
// GET  /v1/payments/{paymentId}/status
// ============================================================

func createLinkHandler(payments *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/link")
		defer span.End()

		var req domain.PaymentLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CustomerID <= 0 || req.LoanID <= 0 {
			writeError(w, http.StatusBadRequest, "customer_id and loan_id are required")
			return
		}
		span.SetAttributes(
			attribute.Int64("customer.id", req.CustomerID),
			attribute.Int64("loan.id", req.LoanID),
		)

		link, err := payments.CreatePaymentLink(ctx, req.CustomerID, req.LoanID, req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

func sendLinkHandler(payments *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/send-link")
		defer span.End()

		var req domain.SendLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CustomerID <= 0 || req.LoanID <= 0 {
			writeError(w, http.StatusBadRequest, "customer_id and loan_id are required")
			return
		}
		if req.Channel == "" {
			req.Channel = "sms"
		}

		receipt, err := payments.SendPaymentLink(ctx, req.CustomerID, req.LoanID, req.Channel)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	}
}

func verifyPaymentHandler(payments *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/{paymentId}/verify")
		defer span.End()

		paymentID := chi.URLParam(r, "paymentId")
		if paymentID == "" {
			writeError(w, http.StatusBadRequest, "payment_id is required")
			return
		}
		span.SetAttributes(attribute.String("payment.id", paymentID))

		verification, err := payments.VerifyPayment(ctx, paymentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, verification)
	}
}

func paymentStatusHandler(payments *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/payments/{paymentId}/status")
		defer span.End()

		paymentID := chi.URLParam(r, "paymentId")
		if paymentID == "" {
			writeError(w, http.StatusBadRequest, "payment_id is required")
			return
		}

		payment, err := payments.GetPaymentStatus(ctx, paymentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}
