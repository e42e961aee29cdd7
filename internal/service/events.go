// Package service implements the marketplace use cases on top of the
// domain stores: checkout, payment intake, fulfillment actions, payouts
// and catalog management. Services validate identity and input, then
// delegate every balance mutation to the settlement store so each one
// commits atomically.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/campustribe/tribemarket/internal/domain"
)

// Pub/sub channels and the durable stream fed by settlement events.
const (
	ChannelOrders      = "events:orders"
	ChannelSettlements = "events:settlements"
	ChannelPayouts     = "events:payouts"
	StreamEvents       = "stream:events"
)

// Alerter delivers operator notifications. Satisfied by notify.Notifier.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Event is the JSON payload published on the signal bus whenever an
// order is created, escrow moves, or a payout is requested.
type Event struct {
	Kind    string `json:"kind"`
	OrderID string `json:"order_id,omitempty"`
	ItemID  string `json:"item_id,omitempty"`
	StoreID string `json:"store_id,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Status  string `json:"status,omitempty"`
	At      string `json:"at"`
}

// publishEvent marshals the event and fans it out on the channel plus
// the durable stream. Delivery is best-effort; a bus outage never fails
// the settlement that triggered the event.
func publishEvent(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, ev Event) {
	if bus == nil {
		return
	}
	ev.At = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorContext(ctx, "marshal event", slog.String("kind", ev.Kind), slog.String("error", err.Error()))
		return
	}

	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish event", slog.String("channel", channel), slog.String("error", err.Error()))
	}
	if err := bus.StreamAppend(ctx, StreamEvents, payload); err != nil {
		logger.WarnContext(ctx, "append event stream", slog.String("kind", ev.Kind), slog.String("error", err.Error()))
	}
}
