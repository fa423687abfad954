package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestEventPublisher_OnCommit(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	res := &store.Result{
		StudentID: "stu-1",
		Balance:   6,
		Records: []models.AdjustmentRecord{{
			ID: "r1", StudentID: "stu-1", Delta: -4, Source: models.SourceRedemptionDebit,
			SourceRef: "red-1", BalanceAfter: 6, CreatedAt: at,
		}},
		Redemption: &models.RedemptionRecord{ID: "red-1", StudentID: "stu-1", PrizeID: "pen", CostAtRedemption: 4, CreatedAt: at},
	}

	t.Run("pushes one event per record and redemption", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		publisher := NewEventPublisher(redisClient, "ledger_events")

		for _, event := range eventsFor(res) {
			data, _ := json.Marshal(event)
			mock.ExpectRPush("ledger_events", string(data)).SetVal(1)
		}

		publisher.OnCommit(ctx, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("push failure does not panic", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		publisher := NewEventPublisher(redisClient, "ledger_events")

		events := eventsFor(res)
		data, _ := json.Marshal(events[0])
		mock.ExpectRPush("ledger_events", string(data)).SetErr(errors.New("connection reset"))
		data, _ = json.Marshal(events[1])
		mock.ExpectRPush("ledger_events", string(data)).SetVal(1)

		publisher.OnCommit(ctx, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without redis", func(t *testing.T) {
		NewEventPublisher(nil, "ledger_events").OnCommit(ctx, res)
	})
}

func TestEventsFor(t *testing.T) {
	events := eventsFor(&store.Result{
		StudentID: "stu-1",
		Balance:   0,
		Records: []models.AdjustmentRecord{{
			ID: "r1", StudentID: "stu-1", Delta: -5, Source: models.SourceRemarkPenalty, SourceRef: "rem-1", Clamped: true,
		}},
	})

	assert.Len(t, events, 1)
	assert.Equal(t, EventAdjustmentApplied, events[0].Type)
	assert.True(t, events[0].Clamped)
	assert.Equal(t, "rem-1", events[0].SourceRef)
}
