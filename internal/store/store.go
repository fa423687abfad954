// Package store keeps the authoritative point balances and the append-only
// adjustment log. Mutate is the only write path for a balance.
package store

import (
	"context"
	"time"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/google/uuid"
)

// AccountView is what a plan sees inside an account's critical section.
type AccountView interface {
	StudentID() string
	Balance() int64
	Version() int64
	// NetDelta sums the requested deltas logged under sourceRef for the given sources.
	NetDelta(ctx context.Context, sourceRef string, sources ...models.Source) (int64, error)
}

// Mutation is persisted as one unit: every adjustment in order, then the
// redemption record if present.
type Mutation struct {
	Adjustments []ledger.Adjustment
	Redemption  *models.RedemptionRecord
}

func (m *Mutation) empty() bool {
	return m == nil || (len(m.Adjustments) == 0 && m.Redemption == nil)
}

// PlanFunc decides what to write from the state it observes. Returning an error
// aborts the mutation without side effects.
type PlanFunc func(ctx context.Context, view AccountView) (*Mutation, error)

type Result struct {
	StudentID  string
	Balance    int64
	Version    int64
	Records    []models.AdjustmentRecord
	Redemption *models.RedemptionRecord
}

// LastRecordID returns the id of the last record written, or "" for a no-op.
func (r *Result) LastRecordID() string {
	if r == nil || len(r.Records) == 0 {
		return ""
	}
	return r.Records[len(r.Records)-1].ID
}

type Store interface {
	OpenAccount(ctx context.Context, studentID string) (*models.Account, error)
	ArchiveAccount(ctx context.Context, studentID string) error
	GetAccount(ctx context.Context, studentID string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// Mutate runs plan and persists its result atomically with respect to every
	// other Mutate on the same account. Implementations using optimistic
	// concurrency return ledger.ErrConcurrencyConflict when they lose a race.
	Mutate(ctx context.Context, studentID string, plan PlanFunc) (*Result, error)

	History(ctx context.Context, studentID string) ([]models.AdjustmentRecord, error)
	GetRedemption(ctx context.Context, id string) (*models.RedemptionRecord, error)
	ListRedemptions(ctx context.Context, studentID string) ([]models.RedemptionRecord, error)
}

// buildRecords applies adjustments to balance in order under the clamp rule.
func buildRecords(studentID string, balance int64, adjustments []ledger.Adjustment, now time.Time) ([]models.AdjustmentRecord, int64) {
	records := make([]models.AdjustmentRecord, 0, len(adjustments))
	for _, adj := range adjustments {
		var clamped bool
		balance, clamped = ledger.Clamp(balance, adj.Delta)
		records = append(records, models.AdjustmentRecord{
			ID:           uuid.NewString(),
			StudentID:    studentID,
			Delta:        adj.Delta,
			Source:       adj.Source,
			SourceRef:    adj.SourceRef,
			Note:         adj.Note,
			BalanceAfter: balance,
			Clamped:      clamped,
			CreatedAt:    now,
		})
	}
	return records, balance
}

func sourceSet(sources []models.Source) map[models.Source]bool {
	set := make(map[models.Source]bool, len(sources))
	for _, s := range sources {
		set[s] = true
	}
	return set
}
