package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// PrizeCatalog is the read-only view of the prize list the ledger needs.
type PrizeCatalog interface {
	GetPrize(ctx context.Context, prizeID string) (*models.Prize, error)
	ListPrizes(ctx context.Context) ([]models.Prize, error)
}

type PostgresPrizeCatalog struct {
	db *sqlx.DB
}

func NewPostgresPrizeCatalog(db *sqlx.DB) *PostgresPrizeCatalog {
	return &PostgresPrizeCatalog{db: db}
}

// GetPrize treats an inactive prize as unknown.
func (c *PostgresPrizeCatalog) GetPrize(ctx context.Context, prizeID string) (*models.Prize, error) {
	var prize models.Prize
	err := c.db.GetContext(ctx, &prize, `
		SELECT id, name, cost, active FROM prizes WHERE id = $1 AND active = true`, prizeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownPrize, prizeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get prize %s: %w", prizeID, err)
	}
	return &prize, nil
}

func (c *PostgresPrizeCatalog) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	prizes := []models.Prize{}
	err := c.db.SelectContext(ctx, &prizes, `
		SELECT id, name, cost, active FROM prizes WHERE active = true ORDER BY cost, id`)
	if err != nil {
		return nil, fmt.Errorf("list prizes: %w", err)
	}
	return prizes, nil
}

// StaticPrizeCatalog serves a fixed prize list, used when no database is configured.
type StaticPrizeCatalog struct {
	mu     sync.RWMutex
	prizes map[string]models.Prize
}

func NewStaticPrizeCatalog(prizes ...models.Prize) *StaticPrizeCatalog {
	c := &StaticPrizeCatalog{prizes: make(map[string]models.Prize, len(prizes))}
	for _, p := range prizes {
		c.prizes[p.ID] = p
	}
	return c
}

// Put adds or replaces a prize. Existing redemptions keep their snapshot cost.
func (c *StaticPrizeCatalog) Put(prize models.Prize) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prizes[prize.ID] = prize
}

func (c *StaticPrizeCatalog) GetPrize(ctx context.Context, prizeID string) (*models.Prize, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prize, ok := c.prizes[prizeID]
	if !ok || !prize.Active {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownPrize, prizeID)
	}
	return &prize, nil
}

func (c *StaticPrizeCatalog) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prizes := make([]models.Prize, 0, len(c.prizes))
	for _, p := range c.prizes {
		if p.Active {
			prizes = append(prizes, p)
		}
	}
	sort.Slice(prizes, func(i, j int) bool {
		if prizes[i].Cost != prizes[j].Cost {
			return prizes[i].Cost < prizes[j].Cost
		}
		return prizes[i].ID < prizes[j].ID
	})
	return prizes, nil
}
