package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/classpoints/backend/internal/config"
	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// AggregateSource supplies per-student values for the non-points criteria.
// Students missing from the map rank with value 0.
type AggregateSource interface {
	Aggregates(ctx context.Context, criterion models.Criterion) (map[string]int64, error)
}

type aggregateRow struct {
	StudentID string `db:"student_id"`
	Value     int64  `db:"value"`
}

// PostgresAggregates reads grade and attendance aggregates from the school's
// homework_answers and presences tables.
type PostgresAggregates struct {
	db *sqlx.DB
}

func NewPostgresAggregates(db *sqlx.DB) *PostgresAggregates {
	return &PostgresAggregates{db: db}
}

const avgGradeQuery = `
	SELECT student_id, ROUND(AVG(grade))::BIGINT AS value
	FROM homework_answers
	WHERE grade IS NOT NULL
	GROUP BY student_id`

const attendanceRateQuery = `
	SELECT student_id, (100 * COUNT(*) FILTER (WHERE present))::BIGINT / COUNT(*) AS value
	FROM presences
	GROUP BY student_id`

func (a *PostgresAggregates) Aggregates(ctx context.Context, criterion models.Criterion) (map[string]int64, error) {
	var query string
	switch criterion {
	case models.CriterionAvgGrade:
		query = avgGradeQuery
	case models.CriterionAttendanceRate:
		query = attendanceRateQuery
	default:
		return nil, fmt.Errorf("%w: %s", ledger.ErrInvalidCriterion, criterion)
	}

	var rows []aggregateRow
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", criterion, err)
	}
	values := make(map[string]int64, len(rows))
	for _, r := range rows {
		values[r.StudentID] = r.Value
	}
	return values, nil
}

// StaticAggregates holds aggregates pushed in by the caller.
type StaticAggregates struct {
	mu     sync.RWMutex
	values map[models.Criterion]map[string]int64
}

func NewStaticAggregates() *StaticAggregates {
	return &StaticAggregates{values: make(map[models.Criterion]map[string]int64)}
}

func (a *StaticAggregates) Set(criterion models.Criterion, studentID string, value int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values[criterion] == nil {
		a.values[criterion] = make(map[string]int64)
	}
	a.values[criterion][studentID] = value
}

func (a *StaticAggregates) Aggregates(ctx context.Context, criterion models.Criterion) (map[string]int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]int64, len(a.values[criterion]))
	for id, v := range a.values[criterion] {
		out[id] = v
	}
	return out, nil
}

// RankingService projects the leaderboard over active accounts. With Redis
// configured the full projection is cached per criterion for the TTL.
type RankingService struct {
	ledger       *LedgerService
	aggregates   AggregateSource
	redis        *redis.Client
	ttl          time.Duration
	defaultLimit int
	maxLimit     int
}

func NewRankingService(ledgerService *LedgerService, aggregates AggregateSource, rdb *redis.Client, cfg *config.LedgerConfig) *RankingService {
	return &RankingService{
		ledger:       ledgerService,
		aggregates:   aggregates,
		redis:        rdb,
		ttl:          cfg.RankingCacheTTL,
		defaultLimit: cfg.DefaultRankLimit,
		maxLimit:     cfg.MaxRankLimit,
	}
}

func rankingKey(criterion models.Criterion) string {
	return fmt.Sprintf("ranking:%s", criterion)
}

// Rank returns at most limit entries; limit 0 means the configured default.
func (s *RankingService) Rank(ctx context.Context, criterion models.Criterion, limit int) ([]models.RankEntry, error) {
	if !criterion.Valid() {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidCriterion, criterion)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 0 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ledger.ErrInvalidLimit, limit, s.maxLimit)
	}

	entries, ok := s.cached(ctx, criterion)
	if !ok {
		var err error
		entries, err = s.project(ctx, criterion)
		if err != nil {
			return nil, err
		}
		s.save(ctx, criterion, entries)
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// OnCommit drops the points leaderboard so the next read sees the change.
func (s *RankingService) OnCommit(ctx context.Context, res *store.Result) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, rankingKey(models.CriterionPoints)).Err(); err != nil {
		log.Printf("[RANKING] failed to invalidate points ranking: %v", err)
	}
}

func (s *RankingService) project(ctx context.Context, criterion models.Criterion) ([]models.RankEntry, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]int64, len(accounts))
	if criterion == models.CriterionPoints {
		for _, a := range accounts {
			values[a.StudentID] = a.Balance
		}
	} else {
		aggregates, err := s.aggregates.Aggregates(ctx, criterion)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			values[a.StudentID] = aggregates[a.StudentID]
		}
	}
	return Project(values), nil
}

// Project orders students by value descending, then student id ascending, and
// numbers them from 1.
func Project(values map[string]int64) []models.RankEntry {
	entries := make([]models.RankEntry, 0, len(values))
	for id, v := range values {
		entries = append(entries, models.RankEntry{StudentID: id, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].StudentID < entries[j].StudentID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

func (s *RankingService) cached(ctx context.Context, criterion models.Criterion) ([]models.RankEntry, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, rankingKey(criterion)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[RANKING] cache read failed, recomputing: %v", err)
		return nil, false
	}

	var entries []models.RankEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("[RANKING] discarding unreadable cache entry: %v", err)
		return nil, false
	}
	return entries, true
}

func (s *RankingService) save(ctx context.Context, criterion models.Criterion, entries []models.RankEntry) {
	if s.redis == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, rankingKey(criterion), string(data), s.ttl).Err(); err != nil {
		log.Printf("[RANKING] cache write failed: %v", err)
	}
}
