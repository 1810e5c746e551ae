package handler

import (
	"net/http"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/port"
	"github.com/collectwise/emi-assistant-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Builder      *service.ContextBuilder
	Engine       *service.DecisionEngine
	Trigger      *service.TriggerService
	Payments     *service.PaymentService
	Interactions *service.InteractionService
	Analytics    *service.AnalyticsService
	Store        port.CollectionsStore
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Customer context
		// =============================================
		r.Get("/customers/{customerId}/context", getContextHandler(svcs.Builder, logger))

		// =============================================
		// Decisions
		// =============================================
		r.Post("/decisions", decisionHandler(svcs.Builder, svcs.Engine, logger))

		// =============================================
		// Triggers & calls
		// =============================================
		r.Get("/triggers/due-emis", dueEMIsHandler(svcs.Trigger, logger))
		r.Post("/triggers/manual", manualTriggerHandler(svcs.Trigger, logger))
		r.Post("/calls/initiate", initiateCallHandler(svcs.Trigger, logger))

		// =============================================
		// Payments
		// =============================================
		r.Post("/payments/link", createLinkHandler(svcs.Payments, logger))
		r.Post("/payments/send-link", sendLinkHandler(svcs.Payments, logger))
		r.Post("/payments/{paymentId}/verify", verifyPaymentHandler(svcs.Payments, logger))
		r.Get("/payments/{paymentId}/status", paymentStatusHandler(svcs.Payments, logger))

		// =============================================
		// Interactions & analytics
		// =============================================
		r.Post("/interactions", createInteractionHandler(svcs.Interactions, logger))
		r.Get("/analytics/payments", paymentAnalyticsHandler(svcs.Analytics, logger))
		r.Get("/analytics/interactions", interactionAnalyticsHandler(svcs.Analytics, logger))

		// =============================================
		// Admin & metrics
		// =============================================
		r.Get("/admin/customer-segments", customerSegmentsHandler(svcs.Builder, logger))
		r.Get("/metrics/collector", collectorMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(store port.CollectionsStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "emi-assistant", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := store.ListCustomers(r.Context())
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
			logger.Warn("health check: store unreachable", zap.Error(err))
		}
		services = append(services, domain.ServiceHealth{
			Name: "sqlite", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		httpStatus := http.StatusOK
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, httpStatus, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func collectorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetCollectorSnapshot())
	}
}
