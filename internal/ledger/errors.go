package ledger

import "errors"

// Error kinds surfaced by the points ledger. Callers match them with errors.Is.
var (
	ErrInvalidDelta        = errors.New("invalid delta")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrUnknownStudent      = errors.New("unknown student")
	ErrUnknownPrize        = errors.New("unknown prize")
	ErrUnknownRedemption   = errors.New("unknown redemption")
	ErrAccountArchived     = errors.New("account archived")
	ErrInvalidCriterion    = errors.New("invalid ranking criterion")
	ErrInvalidLimit        = errors.New("invalid ranking limit")
)
