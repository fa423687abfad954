package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/classpoints/backend/internal/audit"
	"github.com/classpoints/backend/internal/config"
	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/classpoints/backend/pkg/retry"
)

// CommitListener is told about every mutation that wrote at least one record,
// and about accounts being opened or archived. It runs after the commit and
// cannot undo it.
type CommitListener interface {
	OnCommit(ctx context.Context, res *store.Result)
}

type ReconcileReport struct {
	StudentID  string `json:"student_id"`
	Balance    int64  `json:"balance"`
	Replayed   int64  `json:"replayed"`
	Records    int    `json:"records"`
	Consistent bool   `json:"consistent"`
}

// LedgerService is the only mutation surface for point balances. It retries
// optimistic-concurrency conflicts from the store a bounded number of times.
type LedgerService struct {
	store        store.Store
	retrier      *retry.Retrier
	audit        *audit.AuditLogger
	historyLimit int

	mu        sync.RWMutex
	listeners []CommitListener
}

func NewLedgerService(s store.Store, cfg *config.LedgerConfig, auditLogger *audit.AuditLogger) *LedgerService {
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(nil)
	}
	retrier := retry.New(
		retry.WithMaxAttempts(cfg.MaxRetryAttempts),
		retry.WithInitialDelay(cfg.RetryInitialDelay),
		retry.WithMaxDelay(cfg.RetryMaxDelay),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, ledger.ErrConcurrencyConflict)
		}),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Printf("[LEDGER] attempt %d conflicted, retrying in %v: %v", attempt, delay, err)
		}),
	)
	return &LedgerService{
		store:        s,
		retrier:      retrier,
		audit:        auditLogger,
		historyLimit: cfg.HistoryLimit,
	}
}

func (s *LedgerService) Subscribe(l CommitListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Mutate runs plan inside the account's critical section, retrying conflicts.
// The plan may run more than once and must not have side effects of its own.
func (s *LedgerService) Mutate(ctx context.Context, studentID string, plan store.PlanFunc) (*store.Result, error) {
	var res *store.Result
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.store.Mutate(ctx, studentID, plan)
		return err
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			log.Printf("[LEDGER] giving up on %s after %d attempts", studentID, s.retrier.MaxAttempts())
			return nil, fmt.Errorf("mutate %s: %w", studentID, err)
		}
		return nil, err
	}

	if len(res.Records) > 0 {
		s.committed(ctx, res)
	}
	return res, nil
}

// Apply writes a single adjustment and returns the stored balance and the new
// record id. Redemption debits only go through RedemptionService.
func (s *LedgerService) Apply(ctx context.Context, studentID string, delta int64, source models.Source, sourceRef string) (int64, string, error) {
	if !source.Valid() || source == models.SourceRedemptionDebit {
		return 0, "", fmt.Errorf("%w: source %q", ledger.ErrInvalidDelta, source)
	}
	if sourceRef == "" {
		return 0, "", fmt.Errorf("%w: source_ref is required", ledger.ErrInvalidDelta)
	}

	res, err := s.Mutate(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		return &store.Mutation{Adjustments: []ledger.Adjustment{{
			Delta:     delta,
			Source:    source,
			SourceRef: sourceRef,
		}}}, nil
	})
	if err != nil {
		return 0, "", err
	}
	return res.Balance, res.LastRecordID(), nil
}

func (s *LedgerService) GetBalance(ctx context.Context, studentID string) (int64, error) {
	account, err := s.store.GetAccount(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, studentID string) (*models.Account, error) {
	return s.store.GetAccount(ctx, studentID)
}

func (s *LedgerService) OpenAccount(ctx context.Context, studentID string) (*models.Account, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: empty student id", ledger.ErrUnknownStudent)
	}
	account, err := s.store.OpenAccount(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, &store.Result{StudentID: studentID, Balance: account.Balance, Version: account.Version})
	return account, nil
}

func (s *LedgerService) ArchiveAccount(ctx context.Context, studentID string) error {
	if err := s.store.ArchiveAccount(ctx, studentID); err != nil {
		return err
	}
	log.Printf("[LEDGER] account %s archived", studentID)
	s.notify(ctx, &store.Result{StudentID: studentID})
	return nil
}

// Replay recomputes the balance from the full log.
func (s *LedgerService) Replay(ctx context.Context, studentID string) (int64, error) {
	records, err := s.store.History(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return ledger.Replay(records), nil
}

// Reconcile compares the stored balance with the replayed log. The two reads
// are not in one critical section, so a concurrent writer can make a healthy
// account look inconsistent; callers re-run before acting on a mismatch.
func (s *LedgerService) Reconcile(ctx context.Context, studentID string) (*ReconcileReport, error) {
	account, err := s.store.GetAccount(ctx, studentID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.History(ctx, studentID)
	if err != nil {
		return nil, err
	}
	replayed := ledger.Replay(records)
	report := &ReconcileReport{
		StudentID:  studentID,
		Balance:    account.Balance,
		Replayed:   replayed,
		Records:    len(records),
		Consistent: replayed == account.Balance,
	}
	if !report.Consistent {
		log.Printf("[LEDGER] reconcile mismatch for %s: stored=%d replayed=%d", studentID, account.Balance, replayed)
	}
	return report, nil
}

// History returns the newest limit records in creation order. A limit outside
// (0, historyLimit] falls back to historyLimit.
func (s *LedgerService) History(ctx context.Context, studentID string, limit int) ([]models.AdjustmentRecord, error) {
	records, err := s.store.History(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

func (s *LedgerService) ListRedemptions(ctx context.Context, studentID string) ([]models.RedemptionRecord, error) {
	return s.store.ListRedemptions(ctx, studentID)
}

func (s *LedgerService) GetRedemption(ctx context.Context, id string) (*models.RedemptionRecord, error) {
	return s.store.GetRedemption(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *LedgerService) committed(ctx context.Context, res *store.Result) {
	for _, rec := range res.Records {
		s.audit.LogAdjustment(rec)
		if rec.Clamped {
			log.Printf("[LEDGER] %s: delta %d clamped at zero (record %s)", rec.StudentID, rec.Delta, rec.ID)
		}
	}
	if res.Redemption != nil {
		s.audit.LogRedemption(*res.Redemption, res.Balance)
	}
	s.notify(ctx, res)
}

// notify hands res to every listener. Results without records mark a change
// in account membership rather than a balance movement.
func (s *LedgerService) notify(ctx context.Context, res *store.Result) {
	s.mu.RLock()
	listeners := make([]CommitListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.OnCommit(ctx, res)
	}
}
