package escrow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// CommissionRate is the platform cut taken from every released item.
// The rate is 5% everywhere; release and admin resolve-release share
// this single constant.
var CommissionRate = decimal.New(5, -2)

// Settlement breaks down the money movement of a single item
// settlement. All values are exact decimals rounded to two places.
type Settlement struct {
	Total        decimal.Decimal
	Commission   decimal.Decimal
	VendorAmount decimal.Decimal
	BuyerCredit  decimal.Decimal
}

// ReleaseAmounts computes the split for releasing an item to its
// vendor: commission leaves the system, the remainder lands in the
// vendor's wallet.
func ReleaseAmounts(item domain.OrderItem) Settlement {
	total := item.Total()
	commission := total.Mul(CommissionRate).Round(2)
	return Settlement{
		Total:        total,
		Commission:   commission,
		VendorAmount: total.Sub(commission),
	}
}

// RefundAmounts computes the movement for refunding an item: the full
// value leaves escrow and is credited back to the buyer.
func RefundAmounts(item domain.OrderItem) Settlement {
	total := item.Total()
	return Settlement{
		Total:       total,
		BuyerCredit: total,
	}
}

// Apply runs the state machine for one action on one item and returns
// the mutation to persist: new states, store balance deltas, and the
// ledger entries recording the movement. It returns ErrInvalidState
// (wrapped with the attempted action and current states) when the
// transition is not legal, including any second settlement attempt.
func Apply(item domain.OrderItem, o domain.Order, act Action) (domain.ItemMutation, error) {
	out, ok := lookup(act, item)
	if !ok {
		return domain.ItemMutation{}, fmt.Errorf(
			"escrow: %s on item %s in state %s/%s: %w",
			act, item.ID, item.Status, item.Guard, domain.ErrInvalidState,
		)
	}

	mut := domain.ItemMutation{
		Status: out.status,
		Guard:  out.guard,
	}

	switch out.settle {
	case SettleRelease:
		s := ReleaseAmounts(item)
		mut.EscrowDelta = s.Total.Neg()
		mut.WalletDelta = s.VendorAmount
		mut.Entries = []domain.LedgerEntry{
			{
				Kind:    domain.LedgerEscrowRelease,
				StoreID: item.StoreID,
				OrderID: item.OrderID,
				ItemID:  item.ID,
				Amount:  s.VendorAmount,
			},
			{
				Kind:    domain.LedgerCommission,
				StoreID: item.StoreID,
				OrderID: item.OrderID,
				ItemID:  item.ID,
				Amount:  s.Commission,
			},
		}
	case SettleRefund:
		s := RefundAmounts(item)
		mut.EscrowDelta = s.Total.Neg()
		mut.Entries = []domain.LedgerEntry{
			{
				Kind:    domain.LedgerBuyerRefund,
				StoreID: item.StoreID,
				OrderID: item.OrderID,
				ItemID:  item.ID,
				UserID:  o.BuyerID,
				Amount:  s.BuyerCredit,
			},
		}
	}

	return mut, nil
}

// BuildFundingPlan computes the per-store escrow credits for an order
// whose payment has just been confirmed: each item credits its own
// store by the item total, and every credit gets a ledger entry.
func BuildFundingPlan(o domain.Order) domain.FundingPlan {
	credits := make(map[string]decimal.Decimal, len(o.Items))
	entries := make([]domain.LedgerEntry, 0, len(o.Items))

	for _, item := range o.Items {
		total := item.Total()
		credits[item.StoreID] = credits[item.StoreID].Add(total)
		entries = append(entries, domain.LedgerEntry{
			Kind:    domain.LedgerEscrowFund,
			StoreID: item.StoreID,
			OrderID: o.ID,
			ItemID:  item.ID,
			Amount:  total,
		})
	}

	plan := domain.FundingPlan{Entries: entries}
	for storeID, amount := range credits {
		plan.Credits = append(plan.Credits, domain.EscrowCredit{
			StoreID: storeID,
			Amount:  amount,
		})
	}
	return plan
}
