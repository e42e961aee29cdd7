package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind classifies a balance movement.
type LedgerKind string

const (
	// LedgerEscrowFund credits a store's escrow on confirmed payment.
	LedgerEscrowFund LedgerKind = "escrow_fund"
	// LedgerEscrowRelease moves the vendor share from escrow to wallet.
	LedgerEscrowRelease LedgerKind = "escrow_release"
	// LedgerCommission is the platform's cut taken at release.
	LedgerCommission LedgerKind = "commission"
	// LedgerBuyerRefund credits the buyer back on an admin refund.
	LedgerBuyerRefund LedgerKind = "buyer_refund"
	// LedgerPayoutHold debits the wallet when a payout is requested.
	LedgerPayoutHold LedgerKind = "payout_hold"
)

// LedgerEntry is one append-only record of money moving. Every
// settlement transaction writes its entries in the same database
// transaction as the balance updates, so the ledger always reconciles
// with the store balances.
type LedgerEntry struct {
	ID        int64
	Kind      LedgerKind
	StoreID   string
	OrderID   string
	ItemID    string
	PayoutID  string
	UserID    string // buyer credited on refunds
	Amount    decimal.Decimal
	CreatedAt time.Time
}
