package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const accountColumns = `student_id, balance, version, archived, created_at, updated_at`

const adjustmentColumns = `seq, id, student_id, delta, source, source_ref, note, balance_after, clamped, created_at`

// PostgresStore serializes writers per account with a version-guarded update.
// A writer that loses the race rolls back and reports ErrConcurrencyConflict.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) OpenAccount(ctx context.Context, studentID string) (*models.Account, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO point_accounts (student_id, balance, version, archived, created_at, updated_at)
		VALUES ($1, 0, 0, false, $2, $2)
		ON CONFLICT (student_id) DO NOTHING`,
		studentID, now)
	if err != nil {
		return nil, fmt.Errorf("open account %s: %w", studentID, err)
	}
	return s.GetAccount(ctx, studentID)
}

// ArchiveAccount bumps the version so a writer that read the account before
// the archive loses its optimistic lock instead of committing.
func (s *PostgresStore) ArchiveAccount(ctx context.Context, studentID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE point_accounts SET archived = true, version = version + 1, updated_at = $1 WHERE student_id = $2`,
		s.now(), studentID)
	if err != nil {
		return fmt.Errorf("archive account %s: %w", studentID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrUnknownStudent, studentID)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, studentID string) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, `SELECT `+accountColumns+` FROM point_accounts WHERE student_id = $1`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownStudent, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", studentID, err)
	}
	return &account, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.SelectContext(ctx, &accounts, `
		SELECT `+accountColumns+` FROM point_accounts WHERE archived = false ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *PostgresStore) Mutate(ctx context.Context, studentID string, plan PlanFunc) (*Result, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	var account models.Account
	err = tx.GetContext(ctx, &account, `SELECT `+accountColumns+` FROM point_accounts WHERE student_id = $1`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownStudent, studentID)
	}
	if err != nil {
		return nil, classify(err)
	}
	if account.Archived {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountArchived, studentID)
	}

	m, err := plan(ctx, &pgView{tx: tx, account: account})
	if err != nil {
		return nil, err
	}
	if m.empty() {
		return &Result{StudentID: studentID, Balance: account.Balance, Version: account.Version}, nil
	}

	now := s.now()
	records, balance := buildRecords(studentID, account.Balance, m.Adjustments, now)
	for i := range records {
		if err := s.insertAdjustment(ctx, tx, &records[i]); err != nil {
			return nil, classify(err)
		}
	}

	var redemption *models.RedemptionRecord
	if m.Redemption != nil {
		rec := *m.Redemption
		rec.StudentID = studentID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if err := s.insertRedemption(ctx, tx, &rec); err != nil {
			return nil, classify(err)
		}
		redemption = &rec
	}

	if err := s.updateAccountBalance(ctx, tx, studentID, balance, account.Version, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}

	return &Result{
		StudentID:  studentID,
		Balance:    balance,
		Version:    account.Version + 1,
		Records:    records,
		Redemption: redemption,
	}, nil
}

func (s *PostgresStore) History(ctx context.Context, studentID string) ([]models.AdjustmentRecord, error) {
	if _, err := s.GetAccount(ctx, studentID); err != nil {
		return nil, err
	}
	records := []models.AdjustmentRecord{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT `+adjustmentColumns+` FROM point_adjustments WHERE student_id = $1 ORDER BY seq`, studentID)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", studentID, err)
	}
	return records, nil
}

func (s *PostgresStore) GetRedemption(ctx context.Context, id string) (*models.RedemptionRecord, error) {
	var rec models.RedemptionRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT id, student_id, prize_id, cost_at_redemption, created_at FROM redemptions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownRedemption, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption %s: %w", id, err)
	}
	return &rec, nil
}

func (s *PostgresStore) ListRedemptions(ctx context.Context, studentID string) ([]models.RedemptionRecord, error) {
	if _, err := s.GetAccount(ctx, studentID); err != nil {
		return nil, err
	}
	recs := []models.RedemptionRecord{}
	err := s.db.SelectContext(ctx, &recs, `
		SELECT id, student_id, prize_id, cost_at_redemption, created_at FROM redemptions
		WHERE student_id = $1 ORDER BY created_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions %s: %w", studentID, err)
	}
	return recs, nil
}

func (s *PostgresStore) insertAdjustment(ctx context.Context, tx *sqlx.Tx, rec *models.AdjustmentRecord) error {
	return tx.QueryRowxContext(ctx, `
		INSERT INTO point_adjustments (id, student_id, delta, source, source_ref, note, balance_after, clamped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`,
		rec.ID, rec.StudentID, rec.Delta, string(rec.Source), rec.SourceRef, rec.Note,
		rec.BalanceAfter, rec.Clamped, rec.CreatedAt).Scan(&rec.Seq)
}

func (s *PostgresStore) insertRedemption(ctx context.Context, tx *sqlx.Tx, rec *models.RedemptionRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO redemptions (id, student_id, prize_id, cost_at_redemption, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.StudentID, rec.PrizeID, rec.CostAtRedemption, rec.CreatedAt)
	return err
}

func (s *PostgresStore) updateAccountBalance(ctx context.Context, tx *sqlx.Tx, studentID string, newBalance, version int64, now time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE point_accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE student_id = $3 AND version = $4 AND archived = false`,
		newBalance, now, studentID, version)
	if err != nil {
		return classify(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: optimistic lock failed for account %s", ledger.ErrConcurrencyConflict, studentID)
	}
	return nil
}

// classify maps PostgreSQL serialization failures and deadlocks onto
// ErrConcurrencyConflict so they take the retry path.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ledger.ErrConcurrencyConflict, pqErr.Message)
		}
	}
	return err
}

type pgView struct {
	tx      *sqlx.Tx
	account models.Account
}

func (v *pgView) StudentID() string { return v.account.StudentID }
func (v *pgView) Balance() int64    { return v.account.Balance }
func (v *pgView) Version() int64    { return v.account.Version }

func (v *pgView) NetDelta(ctx context.Context, sourceRef string, sources ...models.Source) (int64, error) {
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = string(src)
	}
	var net int64
	err := v.tx.GetContext(ctx, &net, `
		SELECT COALESCE(SUM(delta), 0) FROM point_adjustments
		WHERE student_id = $1 AND source_ref = $2 AND source = ANY($3)`,
		v.account.StudentID, sourceRef, pq.Array(names))
	if err != nil {
		return 0, classify(err)
	}
	return net, nil
}
