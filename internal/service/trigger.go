package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/infra/resilience"
	"github.com/collectwise/emi-assistant-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TriggerService scans for EMIs at or near their due dates and drives the
// collection pipeline for each: context → simulated conversation →
// decision → interaction log.
type TriggerService struct {
	store        port.CollectionsStore
	builder      *ContextBuilder
	simulator    *Simulator
	engine       *DecisionEngine
	interactions *InteractionService
	bulkhead     *resilience.Bulkhead
	reminderDays []int
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewTriggerService creates the trigger service. reminderDays lists the
// day offsets before the due date that warrant a call (e.g. 7, 3, 1, 0).
func NewTriggerService(
	store port.CollectionsStore,
	builder *ContextBuilder,
	simulator *Simulator,
	engine *DecisionEngine,
	interactions *InteractionService,
	maxConcurrency int,
	reminderDays []int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TriggerService {
	if len(reminderDays) == 0 {
		reminderDays = []int{7, 3, 1, 0}
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &TriggerService{
		store:        store,
		builder:      builder,
		simulator:    simulator,
		engine:       engine,
		interactions: interactions,
		bulkhead:     resilience.NewBulkhead(maxConcurrency),
		reminderDays: reminderDays,
		metrics:      metrics,
		logger:       logger,
	}
}

// CheckDueEMIs returns the loans due on each reminder day, enriched with
// customer context and sorted by call priority, highest first. Context
// builds for distinct customers run concurrently; each customer's build
// is still a single sequential computation.
func (s *TriggerService) CheckDueEMIs(ctx context.Context) ([]domain.DueEMI, error) {
	ctx, span := tracer.Start(ctx, "TriggerService.CheckDueEMIs")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("due_emi_scan", time.Since(start))
	}()

	type dueLoan struct {
		loan domain.Loan
		days int
	}
	var dueLoans []dueLoan

	now := time.Now()
	for _, daysAhead := range s.reminderDays {
		target := now.AddDate(0, 0, daysAhead)
		from := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
		to := from.Add(24*time.Hour - time.Nanosecond)

		loans, err := s.store.ListLoansDueBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, l := range loans {
			dueLoans = append(dueLoans, dueLoan{loan: l, days: daysAhead})
		}
	}

	var (
		mu      sync.Mutex
		results []domain.DueEMI
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, dl := range dueLoans {
		dl := dl
		g.Go(func() error {
			if err := s.bulkhead.Acquire(gCtx); err != nil {
				return err
			}
			defer s.bulkhead.Release()

			snapshot, err := s.builder.BuildContext(gCtx, dl.loan.CustomerID)
			if err != nil {
				// A loan pointing at a missing customer should not sink
				// the whole sweep.
				s.logger.Warn("due-EMI scan: skipping loan",
					zap.Int64("loan_id", dl.loan.ID),
					zap.Int64("customer_id", dl.loan.CustomerID),
					zap.Error(err),
				)
				return nil
			}

			due := domain.DueEMI{
				LoanID:       dl.loan.ID,
				CustomerID:   dl.loan.CustomerID,
				CustomerName: snapshot.Name,
				PhoneNumber:  snapshot.PhoneNumber,
				EMIAmount:    dl.loan.EMIAmount,
				DueDate:      dl.loan.NextDueDate,
				DaysUntilDue: dl.days,
				Outstanding:  dl.loan.Outstanding,
				Priority:     callPriority(snapshot, dl.days),
			}

			mu.Lock()
			results = append(results, due)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Priority > results[j].Priority
	})
	return results, nil
}

// callPriority scores how urgently a customer should be called.
// Higher score = call sooner.
func callPriority(snapshot *domain.CustomerContext, daysUntilDue int) int {
	priority := 100.0

	priority += snapshot.RiskScore * 20

	switch daysUntilDue {
	case 0:
		priority += 50 // due today
	case 1:
		priority += 30 // due tomorrow
	case 3:
		priority += 15
	}

	if len(snapshot.RecentInteractions) < 2 {
		priority += 10 // haven't called much recently
	}

	return int(priority)
}

// TriggerCalls runs the full pipeline for every due EMI.
func (s *TriggerService) TriggerCalls(ctx context.Context) (*domain.TriggerReport, error) {
	ctx, span := tracer.Start(ctx, "TriggerService.TriggerCalls")
	defer span.End()

	dueEMIs, err := s.CheckDueEMIs(ctx)
	if err != nil {
		return nil, err
	}
	if len(dueEMIs) == 0 {
		s.logger.Info("no EMIs due for calling today")
		return &domain.TriggerReport{Calls: []domain.CallResult{}}, nil
	}

	s.logger.Info("due-EMI sweep found customers requiring calls",
		zap.Int("count", len(dueEMIs)))

	report := &domain.TriggerReport{Calls: make([]domain.CallResult, 0, len(dueEMIs))}
	for _, due := range dueEMIs {
		call, err := s.runCall(ctx, due.CustomerID, due.EMIAmount, due.DueDate)
		if err != nil {
			s.metrics.IncrTriggeredCall("failed")
			s.logger.Error("triggered call failed",
				zap.Int64("customer_id", due.CustomerID),
				zap.Error(err),
			)
			report.Failed++
			continue
		}
		s.metrics.IncrTriggeredCall("completed")
		report.Triggered++
		report.Calls = append(report.Calls, *call)
	}
	return report, nil
}

// InitiateCall runs the pipeline for a single customer right now,
// outside the due-EMI sweep.
func (s *TriggerService) InitiateCall(ctx context.Context, customerID int64) (*domain.CallResult, error) {
	call, err := s.runCall(ctx, customerID, 0, time.Time{})
	if err != nil {
		s.metrics.IncrTriggeredCall("failed")
		return nil, err
	}
	s.metrics.IncrTriggeredCall("completed")
	return call, nil
}

// ManualTrigger runs the pipeline for one customer, or the full sweep
// when customerID is nil.
func (s *TriggerService) ManualTrigger(ctx context.Context, customerID *int64) (*domain.TriggerReport, error) {
	if customerID == nil {
		return s.TriggerCalls(ctx)
	}

	call, err := s.runCall(ctx, *customerID, 0, time.Time{})
	if err != nil {
		return nil, err
	}
	return &domain.TriggerReport{Triggered: 1, Calls: []domain.CallResult{*call}}, nil
}

// runCall executes context → conversation → interaction log → decision
// for one customer. The interaction is logged before deciding so the
// decision log refers to a persisted call.
func (s *TriggerService) runCall(ctx context.Context, customerID int64, emiAmount float64, dueDate time.Time) (*domain.CallResult, error) {
	snapshot, err := s.builder.BuildContext(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if emiAmount == 0 {
		// Manual trigger without a specific loan: remind about the next
		// active EMI if there is one.
		for _, l := range snapshot.Loans {
			emiAmount = l.EMIAmount
			dueDate = l.DueDate
			break
		}
	}

	dueLabel := "soon"
	if !dueDate.IsZero() {
		dueLabel = dueDate.Format("02 Jan 2006")
	}

	conversation := s.simulator.Simulate(snapshot, emiAmount, dueLabel)
	conversation.CallID = uuid.New().String()

	if _, err := s.interactions.LogInteraction(ctx, &domain.NewInteractionRequest{
		CustomerID:      customerID,
		Type:            "voice_call",
		ConversationLog: conversation.ConversationLog,
		SentimentScore:  conversation.SentimentScore,
		Outcome:         conversation.Outcome,
		CallDuration:    conversation.CallDuration,
	}); err != nil {
		return nil, err
	}

	decision := s.engine.Decide(conversation, snapshot)

	return &domain.CallResult{
		CallID:       conversation.CallID,
		CustomerID:   customerID,
		Status:       domain.CallStatusCompleted,
		Conversation: conversation,
		Decision:     &decision,
	}, nil
}
