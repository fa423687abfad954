package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/classpoints/backend/internal/audit"
	"github.com/classpoints/backend/internal/ledger"
	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/store"
	"github.com/google/uuid"
)

type RedemptionService struct {
	ledger  *LedgerService
	catalog PrizeCatalog
	audit   *audit.AuditLogger
}

func NewRedemptionService(ledgerService *LedgerService, catalog PrizeCatalog, auditLogger *audit.AuditLogger) *RedemptionService {
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(nil)
	}
	return &RedemptionService{
		ledger:  ledgerService,
		catalog: catalog,
		audit:   auditLogger,
	}
}

// Redeem exchanges points for a prize. The balance check and the debit happen
// in the same critical section; a short balance is refused, never clamped.
func (s *RedemptionService) Redeem(ctx context.Context, studentID, prizeID string) (*models.RedemptionRecord, error) {
	prize, err := s.catalog.GetPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	if prize.Cost < 0 {
		return nil, fmt.Errorf("%w: prize %s has negative cost", ledger.ErrInvalidDelta, prizeID)
	}

	redemptionID := uuid.NewString()
	cost := prize.Cost

	res, err := s.ledger.Mutate(ctx, studentID, func(ctx context.Context, view store.AccountView) (*store.Mutation, error) {
		if view.Balance() < cost {
			return nil, fmt.Errorf("%w: balance %d, cost %d", ledger.ErrInsufficientBalance, view.Balance(), cost)
		}
		return &store.Mutation{
			Adjustments: []ledger.Adjustment{{
				Delta:     -cost,
				Source:    models.SourceRedemptionDebit,
				SourceRef: redemptionID,
				Note:      prize.Name,
			}},
			Redemption: &models.RedemptionRecord{
				ID:               redemptionID,
				PrizeID:          prize.ID,
				CostAtRedemption: cost,
			},
		}, nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			s.audit.LogRejectedRedemption(studentID, prizeID, err)
		}
		return nil, err
	}

	log.Printf("[REDEMPTION] %s redeemed %s for %d points, balance now %d", studentID, prize.ID, cost, res.Balance)
	return res.Redemption, nil
}

func (s *RedemptionService) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	return s.catalog.ListPrizes(ctx)
}
