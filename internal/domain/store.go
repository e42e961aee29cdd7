package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is a vendor's shop. It carries the two TribeGuard balances:
// EscrowBalance holds funds received for unsettled items, WalletBalance
// holds released, withdrawable earnings. Both are non-negative at all
// times; only settlement transactions move money between them.
type Store struct {
	ID            string
	OwnerID       string
	Name          string
	WalletBalance decimal.Decimal
	EscrowBalance decimal.Decimal
	CreatedAt     time.Time
}
