package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// CheckoutItem is one product line of a checkout request.
type CheckoutItem struct {
	ProductID string
	Quantity  int
}

// CheckoutInput is a citizen's checkout request.
type CheckoutInput struct {
	Items           []CheckoutItem
	DeliveryMethod  domain.DeliveryMethod
	DeliveryAddress string
	DeliveryPhone   string
}

// OrderService handles checkout and order reads. Prices are snapshotted
// into the order items at checkout, so later catalog edits never change
// what an existing order settles for.
type OrderService struct {
	orders   domain.OrderStore
	products domain.ProductStore
	bus      domain.SignalBus
	logger   *slog.Logger
}

// NewOrderService creates an OrderService with all required dependencies.
func NewOrderService(orders domain.OrderStore, products domain.ProductStore, bus domain.SignalBus, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		bus:      bus,
		logger:   logger.With(slog.String("component", "order_service")),
	}
}

// Checkout creates an unpaid order for the citizen, one item per product
// line, each locked in escrow pending payment confirmation.
func (s *OrderService) Checkout(ctx context.Context, id domain.Identity, in CheckoutInput) (domain.Order, error) {
	if id.Role != domain.RoleCitizen {
		return domain.Order{}, fmt.Errorf("order_service: only citizens can place orders: %w", domain.ErrForbidden)
	}
	if err := validateCheckout(in); err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:              uuid.New().String(),
		BuyerID:         id.UserID,
		PaymentRef:      "TRB-" + uuid.New().String(),
		DeliveryMethod:  in.DeliveryMethod,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryPhone:   in.DeliveryPhone,
		CreatedAt:       now,
	}

	total := decimal.Zero
	for _, line := range in.Items {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order_service: product %s: %w", line.ProductID, err)
		}

		item := domain.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			StoreID:     p.StoreID,
			Quantity:    line.Quantity,
			UnitPrice:   effectivePrice(p),
			Status:      domain.FulfillmentReceived,
			Guard:       domain.EscrowLocked,
			CreatedAt:   now,
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.Total())
	}
	order.TotalAmount = total

	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("order_service: create order: %w", err)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", order.BuyerID),
		slog.Int("items", len(order.Items)),
		slog.String("total", total.StringFixed(2)),
	)
	publishEvent(ctx, s.bus, s.logger, ChannelOrders, Event{
		Kind:    "order_created",
		OrderID: order.ID,
		Amount:  total.StringFixed(2),
	})
	return order, nil
}

// GetOrder returns the order with its items. Buyers see only their own
// orders; admins see everything.
func (s *OrderService) GetOrder(ctx context.Context, id domain.Identity, orderID string) (domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get order: %w", err)
	}
	if !id.IsAdmin() && o.BuyerID != id.UserID {
		return domain.Order{}, fmt.Errorf("order_service: order %s: %w", orderID, domain.ErrForbidden)
	}
	return o, nil
}

// ListOrders returns the caller's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.Order, error) {
	orders, err := s.orders.ListByBuyer(ctx, id.UserID, opts)
	if err != nil {
		return nil, fmt.Errorf("order_service: list orders: %w", err)
	}
	return orders, nil
}

func validateCheckout(in CheckoutInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("order_service: no items: %w", domain.ErrValidation)
	}
	for _, line := range in.Items {
		if line.ProductID == "" {
			return fmt.Errorf("order_service: missing product id: %w", domain.ErrValidation)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("order_service: quantity must be positive: %w", domain.ErrValidation)
		}
	}

	switch in.DeliveryMethod {
	case domain.DeliveryMeetup:
	case domain.DeliveryPlugDelivery, domain.DeliveryWaybill:
		if in.DeliveryAddress == "" || in.DeliveryPhone == "" {
			return fmt.Errorf("order_service: delivery address and phone required: %w", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("order_service: unknown delivery method %q: %w", in.DeliveryMethod, domain.ErrValidation)
	}
	return nil
}

// effectivePrice applies the awoof discount when one is active. The
// result is what gets snapshotted into the order item.
func effectivePrice(p domain.Product) decimal.Decimal {
	if !p.IsAwoof || p.DiscountPct <= 0 || p.DiscountPct >= 100 {
		return p.Price
	}
	factor := decimal.New(int64(100-p.DiscountPct), -2)
	return p.Price.Mul(factor).Round(2)
}
