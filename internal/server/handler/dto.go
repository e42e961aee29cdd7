package handler

import (
	"time"

	"github.com/campustribe/tribemarket/internal/domain"
)

// Wire representations. Money renders as exact two-decimal strings,
// never floats.

type storeDTO struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Name          string `json:"name"`
	WalletBalance string `json:"wallet_balance"`
	EscrowBalance string `json:"escrow_balance"`
	CreatedAt     string `json:"created_at"`
}

func toStoreDTO(s domain.Store) storeDTO {
	return storeDTO{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		Name:          s.Name,
		WalletBalance: s.WalletBalance.StringFixed(2),
		EscrowBalance: s.EscrowBalance.StringFixed(2),
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type productDTO struct {
	ID          string `json:"id"`
	StoreID     string `json:"store_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price"`
	IsAwoof     bool   `json:"is_awoof"`
	DiscountPct int    `json:"discount_pct,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		StoreID:     p.StoreID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		IsAwoof:     p.IsAwoof,
		DiscountPct: p.DiscountPct,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toProductDTOs(products []domain.Product) []productDTO {
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	return out
}

type itemDTO struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	StoreID     string `json:"store_id"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
	Status      string `json:"status"`
	TribeGuard  string `json:"tribeguard_status"`
	CreatedAt   string `json:"created_at"`
}

func toItemDTO(it domain.OrderItem) itemDTO {
	return itemDTO{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		StoreID:     it.StoreID,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice.StringFixed(2),
		Total:       it.Total().StringFixed(2),
		Status:      string(it.Status),
		TribeGuard:  string(it.Guard),
		CreatedAt:   it.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toItemDTOs(items []domain.OrderItem) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	return out
}

type orderDTO struct {
	ID              string    `json:"id"`
	BuyerID         string    `json:"buyer_id"`
	TotalAmount     string    `json:"total_amount"`
	PaymentRef      string    `json:"payment_ref"`
	IsPaid          bool      `json:"is_paid"`
	DeliveryMethod  string    `json:"delivery_method"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	DeliveryPhone   string    `json:"delivery_phone,omitempty"`
	CreatedAt       string    `json:"created_at"`
	Items           []itemDTO `json:"items"`
}

func toOrderDTO(o domain.Order) orderDTO {
	return orderDTO{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		PaymentRef:      o.PaymentRef,
		IsPaid:          o.IsPaid,
		DeliveryMethod:  string(o.DeliveryMethod),
		DeliveryAddress: o.DeliveryAddress,
		DeliveryPhone:   o.DeliveryPhone,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		Items:           toItemDTOs(o.Items),
	}
}

func toOrderDTOs(orders []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	return out
}

type payoutDTO struct {
	ID          string `json:"id"`
	StoreID     string `json:"store_id"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	BankDetails string `json:"bank_details"`
	CreatedAt   string `json:"created_at"`
}

func toPayoutDTO(p domain.PayoutRequest) payoutDTO {
	return payoutDTO{
		ID:          p.ID,
		StoreID:     p.StoreID,
		Amount:      p.Amount.StringFixed(2),
		Status:      string(p.Status),
		BankDetails: p.BankDetails,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPayoutDTOs(payouts []domain.PayoutRequest) []payoutDTO {
	out := make([]payoutDTO, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutDTO(p))
	}
	return out
}
