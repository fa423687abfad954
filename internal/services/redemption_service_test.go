package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedemptionService_Redeem(t *testing.T) {
	ctx := context.Background()
	catalog := NewStaticPrizeCatalog(
		models.Prize{ID: "pen", Name: "Pen", Cost: 4, Active: true},
		models.Prize{ID: "bike", Name: "Bike", Cost: 500, Active: true},
		models.Prize{ID: "retired", Name: "Old Mug", Cost: 1, Active: false},
	)

	t.Run("debits and records the redemption", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		_, _, _ = svc.Apply(ctx, "stu-1", 10, models.SourceManualAdmin, "m-1")
		redemptions := NewRedemptionService(svc, catalog, quietAudit())

		rec, err := redemptions.Redeem(ctx, "stu-1", "pen")
		require.NoError(t, err)
		assert.Equal(t, "stu-1", rec.StudentID)
		assert.Equal(t, int64(4), rec.CostAtRedemption)

		balance, _ := svc.GetBalance(ctx, "stu-1")
		assert.Equal(t, int64(6), balance)

		history, _ := svc.History(ctx, "stu-1", 0)
		last := history[len(history)-1]
		assert.Equal(t, models.SourceRedemptionDebit, last.Source)
		assert.Equal(t, rec.ID, last.SourceRef)
		assert.Equal(t, int64(-4), last.Delta)

		stored, err := svc.GetRedemption(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, stored.ID)
	})

	t.Run("insufficient balance changes nothing", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		_, _, _ = svc.Apply(ctx, "stu-1", 10, models.SourceManualAdmin, "m-1")
		redemptions := NewRedemptionService(svc, catalog, quietAudit())

		_, err := redemptions.Redeem(ctx, "stu-1", "bike")
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

		balance, _ := svc.GetBalance(ctx, "stu-1")
		assert.Equal(t, int64(10), balance)
		history, _ := svc.History(ctx, "stu-1", 0)
		assert.Len(t, history, 1)
		list, _ := svc.ListRedemptions(ctx, "stu-1")
		assert.Empty(t, list)
	})

	t.Run("cost is a snapshot", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		_, _, _ = svc.Apply(ctx, "stu-1", 10, models.SourceManualAdmin, "m-1")
		local := NewStaticPrizeCatalog(models.Prize{ID: "pen", Cost: 4, Active: true})
		redemptions := NewRedemptionService(svc, local, quietAudit())

		rec, err := redemptions.Redeem(ctx, "stu-1", "pen")
		require.NoError(t, err)
		local.Put(models.Prize{ID: "pen", Cost: 9, Active: true})

		stored, _ := svc.GetRedemption(ctx, rec.ID)
		assert.Equal(t, int64(4), stored.CostAtRedemption)
	})

	t.Run("unknown and inactive prizes", func(t *testing.T) {
		svc, _ := newMemoryLedger("stu-1")
		redemptions := NewRedemptionService(svc, catalog, quietAudit())

		_, err := redemptions.Redeem(ctx, "stu-1", "spaceship")
		assert.ErrorIs(t, err, ledger.ErrUnknownPrize)
		_, err = redemptions.Redeem(ctx, "stu-1", "retired")
		assert.ErrorIs(t, err, ledger.ErrUnknownPrize)
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, _ := newMemoryLedger()
		redemptions := NewRedemptionService(svc, catalog, quietAudit())

		_, err := redemptions.Redeem(ctx, "ghost", "pen")
		assert.ErrorIs(t, err, ledger.ErrUnknownStudent)
	})
}

func TestRedemptionService_ConcurrentRedeem(t *testing.T) {
	ctx := context.Background()
	catalog := NewStaticPrizeCatalog(models.Prize{ID: "pen", Cost: 4, Active: true})

	for round := 0; round < 20; round++ {
		svc, _ := newMemoryLedger("stu-1")
		_, _, err := svc.Apply(ctx, "stu-1", 4, models.SourceManualAdmin, "m-1")
		require.NoError(t, err)
		redemptions := NewRedemptionService(svc, catalog, quietAudit())

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = redemptions.Redeem(ctx, "stu-1", "pen")
			}(i)
		}
		wg.Wait()

		var successes, refusals int
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ledger.ErrInsufficientBalance):
				refusals++
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, refusals)

		balance, _ := svc.GetBalance(ctx, "stu-1")
		assert.Equal(t, int64(0), balance)
	}
}

func TestPostgresPrizeCatalog(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	catalog := NewPostgresPrizeCatalog(sqlx.NewDb(db, "sqlmock"))
	cols := []string{"id", "name", "cost", "active"}

	t.Run("get prize", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, cost, active FROM prizes WHERE id = $1 AND active = true")).
			WithArgs("pen").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("pen", "Pen", 4, true))

		prize, err := catalog.GetPrize(ctx, "pen")
		assert.NoError(t, err)
		assert.Equal(t, int64(4), prize.Cost)
	})

	t.Run("missing prize", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, cost, active FROM prizes").
			WithArgs("spaceship").
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := catalog.GetPrize(ctx, "spaceship")
		assert.ErrorIs(t, err, ledger.ErrUnknownPrize)
	})

	t.Run("list active prizes", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, cost, active FROM prizes WHERE active = true ORDER BY cost, id").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("sticker", "Sticker", 0, true).
				AddRow("pen", "Pen", 4, true))

		prizes, err := catalog.ListPrizes(ctx)
		assert.NoError(t, err)
		assert.Len(t, prizes, 2)
		assert.Equal(t, "sticker", prizes[0].ID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaticPrizeCatalog_ListPrizes(t *testing.T) {
	catalog := NewStaticPrizeCatalog(
		models.Prize{ID: "b", Cost: 5, Active: true},
		models.Prize{ID: "a", Cost: 5, Active: true},
		models.Prize{ID: "c", Cost: 1, Active: true},
		models.Prize{ID: "d", Cost: 0, Active: false},
	)
	prizes, err := catalog.ListPrizes(context.Background())
	require.NoError(t, err)
	require.Len(t, prizes, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{prizes[0].ID, prizes[1].ID, prizes[2].ID})
}
