package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/go-redis/redis/v8"
)

const (
	EventAdjustmentApplied = "adjustment.applied"
	EventRedemptionCreated = "redemption.created"
)

type LedgerEvent struct {
	Type         string        `json:"type"`
	StudentID    string        `json:"student_id"`
	RecordID     string        `json:"record_id,omitempty"`
	RedemptionID string        `json:"redemption_id,omitempty"`
	PrizeID      string        `json:"prize_id,omitempty"`
	Delta        int64         `json:"delta"`
	Source       models.Source `json:"source,omitempty"`
	SourceRef    string        `json:"source_ref,omitempty"`
	BalanceAfter int64         `json:"balance_after"`
	Clamped      bool          `json:"clamped,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// EventPublisher pushes committed ledger changes onto a Redis list for
// notification workers. A failed push is logged; the commit stands.
type EventPublisher struct {
	redis *redis.Client
	queue string
}

func NewEventPublisher(rdb *redis.Client, queue string) *EventPublisher {
	return &EventPublisher{redis: rdb, queue: queue}
}

func (p *EventPublisher) OnCommit(ctx context.Context, res *store.Result) {
	if p.redis == nil {
		return
	}
	for _, event := range eventsFor(res) {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := p.redis.RPush(ctx, p.queue, string(data)).Err(); err != nil {
			log.Printf("[EVENTS] failed to publish %s for %s: %v", event.Type, event.StudentID, err)
		}
	}
}

func eventsFor(res *store.Result) []LedgerEvent {
	events := make([]LedgerEvent, 0, len(res.Records)+1)
	for _, rec := range res.Records {
		events = append(events, LedgerEvent{
			Type:         EventAdjustmentApplied,
			StudentID:    rec.StudentID,
			RecordID:     rec.ID,
			Delta:        rec.Delta,
			Source:       rec.Source,
			SourceRef:    rec.SourceRef,
			BalanceAfter: rec.BalanceAfter,
			Clamped:      rec.Clamped,
			OccurredAt:   rec.CreatedAt,
		})
	}
	if r := res.Redemption; r != nil {
		events = append(events, LedgerEvent{
			Type:         EventRedemptionCreated,
			StudentID:    r.StudentID,
			RedemptionID: r.ID,
			PrizeID:      r.PrizeID,
			Delta:        -r.CostAtRedemption,
			BalanceAfter: res.Balance,
			OccurredAt:   r.CreatedAt,
		})
	}
	return events
}
