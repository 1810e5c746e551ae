package domain

import "time"

// ============================================================
// Trigger (due-EMI scan)
// ============================================================

// DueEMI is one loan approaching or at its due date, enriched with the
// customer context and a call priority score.
type DueEMI struct {
	LoanID       int64     `json:"loan_id"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	PhoneNumber  string    `json:"phone_number"`
	EMIAmount    float64   `json:"emi_amount"`
	DueDate      time.Time `json:"due_date"`
	DaysUntilDue int       `json:"days_until_due"`
	Outstanding  float64   `json:"outstanding_amount"`
	Priority     int       `json:"priority"` // higher = call sooner
}

// TriggerRequest is the body of POST /v1/triggers/manual.
type TriggerRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty"` // nil = run the full due-EMI sweep
}

// TriggerReport summarizes one trigger run.
type TriggerReport struct {
	Triggered int          `json:"triggered"`
	Failed    int          `json:"failed"`
	Calls     []CallResult `json:"calls"`
}
