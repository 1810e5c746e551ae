package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/cache"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"

	"go.uber.org/zap"
)

func newTestBuilder(store *stubStore) *ContextBuilder {
	return NewContextBuilder(
		store,
		cache.New[*domain.CustomerContext](5*time.Minute),
		nil,
		DefaultContextBuilderOptions(),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestBuildContext_SparseCustomer(t *testing.T) {
	store := newStubStore()
	store.customers[1] = &domain.Customer{
		ID: 1, Name: "Priya Patel", PhoneNumber: "+919876543211",
		LanguagePreference: "en", Status: domain.CustomerStatusActive,
	}

	snapshot, err := newTestBuilder(store).BuildContext(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// New pattern 25 + low outstanding 5 + active status 5.
	if snapshot.RiskScore != 35 {
		t.Errorf("RiskScore = %v, want 35", snapshot.RiskScore)
	}
	if snapshot.PaymentHistory.PaymentPattern != domain.PaymentPatternNew {
		t.Errorf("PaymentPattern = %q, want new", snapshot.PaymentHistory.PaymentPattern)
	}
	if len(snapshot.Loans) != 0 {
		t.Errorf("Loans = %v, want empty", snapshot.Loans)
	}
	if snapshot.CommPreferences.Timezone != "Asia/Kolkata" {
		t.Errorf("Timezone = %q, want Asia/Kolkata", snapshot.CommPreferences.Timezone)
	}
}

func TestBuildContext_NotFound(t *testing.T) {
	_, err := newTestBuilder(newStubStore()).BuildContext(context.Background(), 42)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildContext_FailSoftLoans(t *testing.T) {
	store := newStubStore()
	store.customers[1] = &domain.Customer{ID: 1, Name: "Test", Status: domain.CustomerStatusActive}
	store.loanErr = errors.New("db busy")

	snapshot, err := newTestBuilder(store).BuildContext(context.Background(), 1)
	if err != nil {
		t.Fatalf("loan failure should degrade, got %v", err)
	}
	if len(snapshot.Loans) != 0 {
		t.Errorf("Loans = %v, want empty on lookup failure", snapshot.Loans)
	}
	if snapshot.PaymentHistory.PaymentPattern != domain.PaymentPatternNew {
		t.Errorf("PaymentPattern = %q, want new on lookup failure", snapshot.PaymentHistory.PaymentPattern)
	}
}

func TestBuildContext_CachesAndInvalidates(t *testing.T) {
	store := newStubStore()
	store.customers[1] = &domain.Customer{ID: 1, Name: "Test", Status: domain.CustomerStatusActive}
	builder := newTestBuilder(store)

	if _, err := builder.BuildContext(context.Background(), 1); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := builder.BuildContext(context.Background(), 1); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if store.getCustomerCalls != 1 {
		t.Errorf("store calls after cached build = %d, want 1", store.getCustomerCalls)
	}

	builder.Invalidate(1)
	if _, err := builder.BuildContext(context.Background(), 1); err != nil {
		t.Fatalf("build after invalidate: %v", err)
	}
	if store.getCustomerCalls != 2 {
		t.Errorf("store calls after invalidate = %d, want 2", store.getCustomerCalls)
	}
}

func TestRiskScore(t *testing.T) {
	builder := newTestBuilder(newStubStore())

	tests := []struct {
		name        string
		customer    *domain.Customer
		outstanding float64
		history     domain.PaymentHistory
		want        float64
	}{
		{
			name:        "good customer low balance",
			customer:    &domain.Customer{Status: domain.CustomerStatusActive},
			outstanding: 10000,
			history:     domain.PaymentHistory{PaymentPattern: domain.PaymentPatternGood},
			want:        20, // 10 + 5 + 5
		},
		{
			name:        "poor pattern high balance overdue",
			customer:    &domain.Customer{Status: domain.CustomerStatusOverdue},
			outstanding: 150000,
			history:     domain.PaymentHistory{PaymentPattern: domain.PaymentPatternPoor, FailedPayments: 1},
			want:        85, // 35 + 25 + 20 + 5
		},
		{
			name:        "worst case saturates at 100",
			customer:    &domain.Customer{Status: domain.CustomerStatusDefaulted},
			outstanding: 200000,
			history:     domain.PaymentHistory{PaymentPattern: domain.PaymentPatternPoor, FailedPayments: 5},
			want:        100, // 35 + 25 + 30 + 10 = 100, clamp boundary
		},
		{
			name:        "medium balance band",
			customer:    &domain.Customer{Status: domain.CustomerStatusActive},
			outstanding: 75000,
			history:     domain.PaymentHistory{PaymentPattern: domain.PaymentPatternGood},
			want:        30, // 10 + 15 + 5
		},
		{
			name:        "boundary balance uses lower band",
			customer:    &domain.Customer{Status: domain.CustomerStatusActive},
			outstanding: 50000,
			history:     domain.PaymentHistory{PaymentPattern: domain.PaymentPatternGood},
			want:        20, // 10 + 5 + 5, threshold is strict
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := builder.riskScore(tt.customer, tt.outstanding, tt.history)
			if got != tt.want {
				t.Errorf("riskScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizePayments(t *testing.T) {
	completed := domain.Payment{Status: domain.PaymentStatusCompleted, Amount: 1000}
	failed := domain.Payment{Status: domain.PaymentStatusFailed}

	t.Run("no payments is new", func(t *testing.T) {
		h := SummarizePayments(nil)
		if h.PaymentPattern != domain.PaymentPatternNew {
			t.Errorf("pattern = %q, want new", h.PaymentPattern)
		}
	})

	t.Run("high success rate is good", func(t *testing.T) {
		h := SummarizePayments([]domain.Payment{completed, completed, completed, completed, completed})
		if h.PaymentPattern != domain.PaymentPatternGood {
			t.Errorf("pattern = %q, want good", h.PaymentPattern)
		}
		if h.TotalAmountPaid != 5000 {
			t.Errorf("TotalAmountPaid = %v, want 5000", h.TotalAmountPaid)
		}
	})

	t.Run("exactly 0.8 success rate is poor", func(t *testing.T) {
		h := SummarizePayments([]domain.Payment{completed, completed, completed, completed, failed})
		if h.SuccessRate != 0.8 {
			t.Fatalf("SuccessRate = %v, want 0.8", h.SuccessRate)
		}
		if h.PaymentPattern != domain.PaymentPatternPoor {
			t.Errorf("pattern = %q, want poor (threshold is strict)", h.PaymentPattern)
		}
	})

	t.Run("counts failures", func(t *testing.T) {
		h := SummarizePayments([]domain.Payment{completed, failed, failed})
		if h.FailedPayments != 2 || h.SuccessfulPayments != 1 || h.TotalPayments != 3 {
			t.Errorf("counts = %d/%d/%d, want 1 successful, 2 failed, 3 total",
				h.SuccessfulPayments, h.FailedPayments, h.TotalPayments)
		}
	})
}

func TestBestContactTime(t *testing.T) {
	paidRecently := []domain.InteractionSnapshot{
		{Outcome: domain.OutcomeNoResponse},
		{Outcome: domain.OutcomePromisedPayment},
	}
	if got := bestContactTime(paidRecently); got != "10:00-16:00" {
		t.Errorf("bestContactTime = %q, want 10:00-16:00", got)
	}
	if got := bestContactTime(nil); got != "10:00-12:00" {
		t.Errorf("bestContactTime = %q, want 10:00-12:00", got)
	}
}

func TestGetCustomerSegments(t *testing.T) {
	now := time.Now()
	store := newStubStore()

	// Low risk: good pattern, small balance, VIP principal.
	store.customers[1] = &domain.Customer{ID: 1, Name: "VIP", Status: domain.CustomerStatusActive}
	store.loans = append(store.loans, domain.Loan{
		ID: 1, CustomerID: 1, LoanAmount: 600000, Outstanding: 40000, Status: "active",
	})
	for i := 0; i < 5; i++ {
		store.payments = append(store.payments, domain.Payment{
			LoanID: 1, Status: domain.PaymentStatusCompleted, Amount: 15000, CreatedAt: now,
		})
	}

	// High risk: defaulted, big balance, no payments.
	store.customers[2] = &domain.Customer{ID: 2, Name: "Risky", Status: domain.CustomerStatusDefaulted}
	store.loans = append(store.loans, domain.Loan{
		ID: 2, CustomerID: 2, LoanAmount: 300000, Outstanding: 250000, Status: "active",
	})

	segments, err := newTestBuilder(store).GetCustomerSegments(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(segments.LowRisk) != 1 || segments.LowRisk[0] != 1 {
		t.Errorf("LowRisk = %v, want [1]", segments.LowRisk)
	}
	if len(segments.HighRisk) != 1 || segments.HighRisk[0] != 2 {
		t.Errorf("HighRisk = %v, want [2]", segments.HighRisk)
	}
	if len(segments.VIP) != 1 || segments.VIP[0] != 1 {
		t.Errorf("VIP = %v, want [1]", segments.VIP)
	}
}
