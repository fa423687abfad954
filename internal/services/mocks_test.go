package services

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/classpoints/backend/internal/audit"
	"github.com/classpoints/backend/internal/config"
	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) OpenAccount(ctx context.Context, studentID string) (*models.Account, error) {
	args := m.Called(studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) ArchiveAccount(ctx context.Context, studentID string) error {
	args := m.Called(studentID)
	return args.Error(0)
}

func (m *MockStore) GetAccount(ctx context.Context, studentID string) (*models.Account, error) {
	args := m.Called(studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockStore) Mutate(ctx context.Context, studentID string, plan store.PlanFunc) (*store.Result, error) {
	args := m.Called(studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Result), args.Error(1)
}

func (m *MockStore) History(ctx context.Context, studentID string) ([]models.AdjustmentRecord, error) {
	args := m.Called(studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdjustmentRecord), args.Error(1)
}

func (m *MockStore) GetRedemption(ctx context.Context, id string) (*models.RedemptionRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionRecord), args.Error(1)
}

func (m *MockStore) ListRedemptions(ctx context.Context, studentID string) ([]models.RedemptionRecord, error) {
	args := m.Called(studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RedemptionRecord), args.Error(1)
}

// recordingListener collects every committed result.
type recordingListener struct {
	results []*store.Result
}

func (l *recordingListener) OnCommit(ctx context.Context, res *store.Result) {
	l.results = append(l.results, res)
}

func testConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		MaxRetryAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     2 * time.Millisecond,
		RankingCacheTTL:   30 * time.Second,
		DefaultRankLimit:  10,
		MaxRankLimit:      100,
		MaxManualDelta:    1000,
		HistoryLimit:      500,
		EventQueue:        "ledger_events",
	}
}

func quietAudit() *audit.AuditLogger {
	return audit.NewAuditLogger(log.New(io.Discard, "", 0))
}

// newMemoryLedger returns a ledger over a fresh in-memory store with the given
// accounts already open.
func newMemoryLedger(students ...string) (*LedgerService, *store.MemoryStore) {
	s := store.NewMemoryStore()
	for _, id := range students {
		s.OpenAccount(context.Background(), id)
	}
	return NewLedgerService(s, testConfig(), quietAudit()), s
}
