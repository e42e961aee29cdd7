package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a listing ("drop") in a vendor's store.
type Product struct {
	ID          string
	StoreID     string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	IsAwoof     bool // discounted flash listing
	DiscountPct int  // only meaningful when IsAwoof
	CreatedAt   time.Time
}
