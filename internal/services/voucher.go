package services

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const voucherSize = 256

type VoucherService struct {
	ledger *LedgerService
}

func NewVoucherService(ledgerService *LedgerService) *VoucherService {
	return &VoucherService{ledger: ledgerService}
}

// VoucherContent is what the prize desk scans to look a redemption up.
func VoucherContent(redemptionID string) string {
	return fmt.Sprintf("redemption:%s", redemptionID)
}

// Voucher renders a PNG QR code for an existing redemption.
func (s *VoucherService) Voucher(ctx context.Context, redemptionID string) ([]byte, error) {
	rec, err := s.ledger.GetRedemption(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(VoucherContent(rec.ID), qrcode.Medium, voucherSize)
	if err != nil {
		return nil, fmt.Errorf("encode voucher %s: %w", rec.ID, err)
	}
	return png, nil
}
