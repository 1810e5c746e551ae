package service

import (
	"context"
	"testing"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"

	"go.uber.org/zap"
)

func newTestTrigger(store *stubStore) *TriggerService {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	builder := newTestBuilder(store)
	engine := NewDecisionEngine(nil, metrics, logger)
	interactions := NewInteractionService(store, builder, metrics, logger)
	return NewTriggerService(store, builder, NewSimulator(logger), engine, interactions,
		4, []int{7, 3, 1, 0}, metrics, logger)
}

func TestCallPriority(t *testing.T) {
	quiet := &domain.CustomerContext{RiskScore: 50}
	chatty := &domain.CustomerContext{
		RiskScore: 50,
		RecentInteractions: []domain.InteractionSnapshot{
			{}, {},
		},
	}

	tests := []struct {
		name     string
		snapshot *domain.CustomerContext
		days     int
		want     int
	}{
		{"due today", quiet, 0, 1160},       // 100 + 50*20 + 50 + 10
		{"due tomorrow", quiet, 1, 1140},    // 100 + 1000 + 30 + 10
		{"due in three days", quiet, 3, 1125},
		{"due in a week", quiet, 7, 1110},
		{"recently contacted", chatty, 0, 1150}, // no quiet bonus
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callPriority(tt.snapshot, tt.days); got != tt.want {
				t.Errorf("callPriority = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckDueEMIs_SortsByPriority(t *testing.T) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	store := newStubStore()

	// Low-risk customer due in a week, high-risk customer due today.
	store.customers[1] = &domain.Customer{ID: 1, Name: "Calm", Status: domain.CustomerStatusActive}
	store.customers[2] = &domain.Customer{ID: 2, Name: "Urgent", Status: domain.CustomerStatusDefaulted}
	store.loans = []domain.Loan{
		{ID: 1, CustomerID: 1, EMIAmount: 10000, Outstanding: 30000, Status: "active",
			NextDueDate: today.AddDate(0, 0, 7)},
		{ID: 2, CustomerID: 2, EMIAmount: 20000, Outstanding: 250000, Status: "active",
			NextDueDate: today},
	}

	dueEMIs, err := newTestTrigger(store).CheckDueEMIs(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dueEMIs) != 2 {
		t.Fatalf("len(dueEMIs) = %d, want 2", len(dueEMIs))
	}
	if dueEMIs[0].CustomerID != 2 {
		t.Errorf("first due EMI customer = %d, want the high-risk customer 2", dueEMIs[0].CustomerID)
	}
	if dueEMIs[0].Priority <= dueEMIs[1].Priority {
		t.Errorf("priorities not descending: %d then %d", dueEMIs[0].Priority, dueEMIs[1].Priority)
	}
}

func TestCheckDueEMIs_SkipsMissingCustomers(t *testing.T) {
	now := time.Now()
	store := newStubStore()
	store.loans = []domain.Loan{
		{ID: 1, CustomerID: 99, EMIAmount: 10000, Status: "active", NextDueDate: now},
	}

	dueEMIs, err := newTestTrigger(store).CheckDueEMIs(context.Background())
	if err != nil {
		t.Fatalf("missing customer should be skipped, got %v", err)
	}
	if len(dueEMIs) != 0 {
		t.Errorf("len(dueEMIs) = %d, want 0", len(dueEMIs))
	}
}

func TestTriggerCalls_RunsFullPipeline(t *testing.T) {
	now := time.Now()
	store := newStubStore()
	store.customers[1] = &domain.Customer{
		ID: 1, Name: "Rahul Sharma", PhoneNumber: "+919876543210",
		LanguagePreference: "en", Status: domain.CustomerStatusActive,
	}
	store.loans = []domain.Loan{
		{ID: 1, CustomerID: 1, EMIAmount: 15000, Outstanding: 400000, Status: "active",
			NextDueDate: now},
	}

	report, err := newTestTrigger(store).TriggerCalls(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Triggered != 1 || report.Failed != 0 {
		t.Fatalf("report = %d triggered / %d failed, want 1/0", report.Triggered, report.Failed)
	}

	call := report.Calls[0]
	if call.CustomerID != 1 || call.Status != domain.CallStatusCompleted {
		t.Errorf("call = %+v, want completed call for customer 1", call)
	}
	if call.Decision == nil || call.Decision.NextAction == "" {
		t.Errorf("call decision missing: %+v", call.Decision)
	}
	if len(store.createdInteracted) != 1 {
		t.Fatalf("interactions logged = %d, want 1", len(store.createdInteracted))
	}
	if store.createdInteracted[0].Outcome != call.Conversation.Outcome {
		t.Errorf("logged outcome %q != conversation outcome %q",
			store.createdInteracted[0].Outcome, call.Conversation.Outcome)
	}
}

func TestManualTrigger_SingleCustomer(t *testing.T) {
	store := newStubStore()
	store.customers[5] = &domain.Customer{
		ID: 5, Name: "Priya Patel", Status: domain.CustomerStatusActive,
	}
	store.loans = []domain.Loan{
		{ID: 3, CustomerID: 5, EMIAmount: 12000, Outstanding: 240000, Status: "active",
			NextDueDate: time.Now().AddDate(0, 0, 14)},
	}

	customerID := int64(5)
	report, err := newTestTrigger(store).ManualTrigger(context.Background(), &customerID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Triggered != 1 || len(report.Calls) != 1 {
		t.Fatalf("report = %+v, want one call", report)
	}
	if report.Calls[0].CustomerID != 5 {
		t.Errorf("call customer = %d, want 5", report.Calls[0].CustomerID)
	}
}

func TestManualTrigger_UnknownCustomer(t *testing.T) {
	customerID := int64(404)
	if _, err := newTestTrigger(newStubStore()).ManualTrigger(context.Background(), &customerID); err == nil {
		t.Fatal("expected error for unknown customer")
	}
}
