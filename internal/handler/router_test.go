package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/handler"
	"github.com/collectwise/emi-assistant-go/internal/infra/cache"
	"github.com/collectwise/emi-assistant-go/internal/infra/client"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/infra/resilience"
	"github.com/collectwise/emi-assistant-go/internal/infra/sqlite"
	"github.com/collectwise/emi-assistant-go/internal/service"

	"go.uber.org/zap"
)

// newTestRouter wires the full stack against a seeded temp database.
// Gateway and messenger run in simulation mode (no base URL).
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	rules := service.DefaultRules()
	resilienceCfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	httpClient := &http.Client{Timeout: time.Second}
	gateway := client.NewGatewayClient(httpClient, "", "",
		resilience.NewCircuitBreaker("gateway"), resilienceCfg, time.Hour)
	messenger := client.NewMessengerClient(httpClient, "", "",
		resilience.NewCircuitBreaker("messenger"), resilienceCfg)

	opts := service.DefaultContextBuilderOptions()
	opts.SegmentVIPPrincipal = rules.VIPPrincipal
	builder := service.NewContextBuilder(store, cache.New[*domain.CustomerContext](time.Minute), nil, opts, metrics, logger)
	engine := service.NewDecisionEngine(rules, metrics, logger)
	simulator := service.NewSimulator(logger)
	interactions := service.NewInteractionService(store, builder, metrics, logger)
	trigger := service.NewTriggerService(store, builder, simulator, engine, interactions,
		4, []int{7, 3, 1, 0}, metrics, logger)
	payments := service.NewPaymentService(store, gateway, messenger, builder,
		"test-signing-secret", time.Hour, metrics, logger)
	analytics := service.NewAnalyticsService(store, logger)

	return handler.NewRouter(handler.Services{
		Builder:      builder,
		Engine:       engine,
		Trigger:      trigger,
		Payments:     payments,
		Interactions: interactions,
		Analytics:    analytics,
		Store:        store,
	}, metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestGetCustomerContext(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/customers/1/context", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	snapshot := decodeBody[domain.CustomerContext](t, rec)
	if snapshot.CustomerID != 1 || snapshot.Name == "" {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if len(snapshot.Loans) != 1 {
		t.Errorf("got %d loans, want the seeded loan", len(snapshot.Loans))
	}
}

func TestGetCustomerContext_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/customers/999/context", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetCustomerContext_InvalidID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/customers/abc/context", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPostDecision(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/decisions", domain.DecisionRequest{
		CustomerID: 1,
		Conversation: domain.ConversationResult{
			Outcome:        domain.OutcomePromisedPayment,
			SentimentScore: 0.2,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decision := decodeBody[domain.Decision](t, rec)
	if decision.NextAction != domain.ActionScheduleFollowUp {
		t.Errorf("NextAction = %q, want schedule_follow_up", decision.NextAction)
	}
	if decision.RecommendedChannel == "" || decision.MessageTone == "" {
		t.Errorf("decision missing guidance: %+v", decision)
	}
}

func TestPostDecision_MissingCustomerID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/decisions", map[string]any{
		"conversation": map[string]any{"outcome": "unclear"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDueEMIs(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/triggers/due-emis", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]json.RawMessage](t, rec)
	if _, ok := body["count"]; !ok {
		t.Errorf("response missing count: %s", rec.Body.String())
	}
	if _, ok := body["due_emis"]; !ok {
		t.Errorf("response missing due_emis: %s", rec.Body.String())
	}
}

func TestInitiateCall(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/calls/initiate", map[string]any{"customer_id": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	call := decodeBody[domain.CallResult](t, rec)
	if call.CustomerID != 1 || call.CallID == "" {
		t.Errorf("call = %+v", call)
	}
	if call.Decision == nil {
		t.Error("expected a decision attached to the call result")
	}
}

func TestManualTrigger(t *testing.T) {
	router := newTestRouter(t)

	customerID := int64(2)
	rec := doJSON(t, router, http.MethodPost, "/v1/triggers/manual",
		domain.TriggerRequest{CustomerID: &customerID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPaymentLinkLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/payments/link",
		domain.PaymentLinkRequest{CustomerID: 1, LoanID: 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	link := decodeBody[domain.PaymentLink](t, rec)
	if link.PaymentID == "" || link.ShortURL == "" || link.Token == "" {
		t.Fatalf("link = %+v", link)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/payments/"+link.PaymentID+"/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status check = %d, body %s", rec.Code, rec.Body.String())
	}
	payment := decodeBody[domain.Payment](t, rec)
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("payment Status = %q, want pending", payment.Status)
	}

	// The simulated gateway reports every payment as captured.
	rec = doJSON(t, router, http.MethodPost, "/v1/payments/"+link.PaymentID+"/verify", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}
	verification := decodeBody[domain.PaymentVerification](t, rec)
	if verification.Status != domain.PaymentStatusCompleted {
		t.Errorf("verification Status = %q, want completed", verification.Status)
	}
	if !verification.ConfirmationSent {
		t.Error("expected a confirmation message")
	}
}

func TestSendPaymentLink(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/payments/send-link",
		domain.SendLinkRequest{CustomerID: 1, LoanID: 1, Channel: "whatsapp"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	receipt := decodeBody[domain.MessageReceipt](t, rec)
	if receipt.Channel != "whatsapp" || receipt.MessageID == "" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestVerifyPayment_Unknown(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/payments/no-such-payment/verify", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPostInteraction(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/interactions", domain.NewInteractionRequest{
		CustomerID:     1,
		Type:           "voice_call",
		Outcome:        domain.OutcomeNoResponse,
		SentimentScore: -0.2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	interaction := decodeBody[domain.Interaction](t, rec)
	if interaction.CallID == "" || interaction.Status != domain.CallStatusCompleted {
		t.Errorf("interaction = %+v", interaction)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/analytics/payments?days=90", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payments status = %d, body %s", rec.Code, rec.Body.String())
	}
	payments := decodeBody[domain.PaymentAnalytics](t, rec)
	if payments.PeriodDays != 90 {
		t.Errorf("PeriodDays = %d, want 90", payments.PeriodDays)
	}
	if payments.TotalPayments == 0 {
		t.Error("expected seeded payments in the window")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/analytics/interactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("interactions status = %d, body %s", rec.Code, rec.Body.String())
	}
	interactions := decodeBody[domain.InteractionAnalytics](t, rec)
	if interactions.TotalInteractions == 0 {
		t.Error("expected seeded interactions in the window")
	}
}

func TestCustomerSegments(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/admin/customer-segments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCollectorMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/collector", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	snapshot := decodeBody[domain.CollectorMetrics](t, rec)
	if snapshot.Period != "all_time" {
		t.Errorf("Period = %q, want all_time", snapshot.Period)
	}
}
