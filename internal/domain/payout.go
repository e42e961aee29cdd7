package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus tracks a withdrawal request. Approval and rejection are
// operated outside this system; only the PENDING hold is modelled here.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "PENDING"
	PayoutApproved PayoutStatus = "APPROVED"
	PayoutRejected PayoutStatus = "REJECTED"
)

// PayoutRequest is a vendor's withdrawal against their wallet balance.
// The amount is deducted from the wallet at request time.
type PayoutRequest struct {
	ID          string
	StoreID     string
	Amount      decimal.Decimal
	Status      PayoutStatus
	BankDetails string
	CreatedAt   time.Time
}
