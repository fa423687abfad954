package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
)

// MemoryStore keeps every account in its own slot with its own lock. The index
// lock is only held to find or create a slot, never across a mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*memAccount

	redemptions sync.Map // redemption id -> student id
	seq         atomic.Int64
	now         func() time.Time
}

type memAccount struct {
	mu          sync.Mutex
	account     models.Account
	records     []models.AdjustmentRecord
	redemptions []models.RedemptionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*memAccount),
		now:      time.Now,
	}
}

func (s *MemoryStore) OpenAccount(ctx context.Context, studentID string) (*models.Account, error) {
	s.mu.Lock()
	slot, ok := s.accounts[studentID]
	if !ok {
		now := s.now()
		slot = &memAccount{account: models.Account{
			StudentID: studentID,
			CreatedAt: now,
			UpdatedAt: now,
		}}
		s.accounts[studentID] = slot
	}
	s.mu.Unlock()

	slot.mu.Lock()
	defer slot.mu.Unlock()
	acc := slot.account
	return &acc, nil
}

func (s *MemoryStore) ArchiveAccount(ctx context.Context, studentID string) error {
	slot, err := s.slot(studentID)
	if err != nil {
		return err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.account.Archived = true
	slot.account.Version++
	slot.account.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, studentID string) (*models.Account, error) {
	slot, err := s.slot(studentID)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	acc := slot.account
	return &acc, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.RLock()
	slots := make([]*memAccount, 0, len(s.accounts))
	for _, slot := range s.accounts {
		slots = append(slots, slot)
	}
	s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		acc := slot.account
		slot.mu.Unlock()
		if !acc.Archived {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].StudentID < accounts[j].StudentID })
	return accounts, nil
}

func (s *MemoryStore) Mutate(ctx context.Context, studentID string, plan PlanFunc) (*Result, error) {
	slot, err := s.slot(studentID)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.account.Archived {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountArchived, studentID)
	}

	m, err := plan(ctx, &memView{slot: slot})
	if err != nil {
		return nil, err
	}
	if m.empty() {
		return &Result{StudentID: studentID, Balance: slot.account.Balance, Version: slot.account.Version}, nil
	}

	now := s.now()
	records, balance := buildRecords(studentID, slot.account.Balance, m.Adjustments, now)
	for i := range records {
		records[i].Seq = s.seq.Add(1)
	}
	slot.records = append(slot.records, records...)

	var redemption *models.RedemptionRecord
	if m.Redemption != nil {
		rec := *m.Redemption
		rec.StudentID = studentID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		slot.redemptions = append(slot.redemptions, rec)
		s.redemptions.Store(rec.ID, studentID)
		redemption = &rec
	}

	slot.account.Balance = balance
	slot.account.Version++
	slot.account.UpdatedAt = now

	return &Result{
		StudentID:  studentID,
		Balance:    balance,
		Version:    slot.account.Version,
		Records:    records,
		Redemption: redemption,
	}, nil
}

func (s *MemoryStore) History(ctx context.Context, studentID string) ([]models.AdjustmentRecord, error) {
	slot, err := s.slot(studentID)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	out := make([]models.AdjustmentRecord, len(slot.records))
	copy(out, slot.records)
	return out, nil
}

func (s *MemoryStore) GetRedemption(ctx context.Context, id string) (*models.RedemptionRecord, error) {
	studentID, ok := s.redemptions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownRedemption, id)
	}

	redemptions, err := s.ListRedemptions(ctx, studentID.(string))
	if err != nil {
		return nil, err
	}
	for _, rec := range redemptions {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownRedemption, id)
}

func (s *MemoryStore) ListRedemptions(ctx context.Context, studentID string) ([]models.RedemptionRecord, error) {
	slot, err := s.slot(studentID)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	out := make([]models.RedemptionRecord, len(slot.redemptions))
	copy(out, slot.redemptions)
	return out, nil
}

func (s *MemoryStore) slot(studentID string) (*memAccount, error) {
	s.mu.RLock()
	slot, ok := s.accounts[studentID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownStudent, studentID)
	}
	return slot, nil
}

// memView reads the slot directly; the caller already holds slot.mu.
type memView struct {
	slot *memAccount
}

func (v *memView) StudentID() string { return v.slot.account.StudentID }
func (v *memView) Balance() int64    { return v.slot.account.Balance }
func (v *memView) Version() int64    { return v.slot.account.Version }

func (v *memView) NetDelta(ctx context.Context, sourceRef string, sources ...models.Source) (int64, error) {
	want := sourceSet(sources)
	var net int64
	for _, rec := range v.slot.records {
		if rec.SourceRef == sourceRef && want[rec.Source] {
			net += rec.Delta
		}
	}
	return net, nil
}
