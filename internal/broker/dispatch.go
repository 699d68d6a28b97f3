package broker

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/slip"
)

// PublishTickets sends one preparation ticket per station. Failures are
// logged; the order already exists in the ERP.
func PublishTickets(ctx context.Context, p Publisher, o order.Order) {
	for _, t := range slip.Tickets(o) {
		if err := p.Publish(ctx, TicketKey(t.Station), t); err != nil {
			log.Error().Err(err).Str("order", o.Name).Str("station", t.Station).Msg("publish ticket")
		}
	}
}

// ReceiptOnBilled returns a transition hook that publishes the receipt once
// an order reaches Billed.
func ReceiptOnBilled(p Publisher) func(ctx context.Context, o order.Order, from string) {
	return func(ctx context.Context, o order.Order, from string) {
		if o.WorkflowState != enum.StateBilled {
			return
		}
		if err := p.Publish(ctx, KeyReceipt, slip.Build(o)); err != nil {
			log.Error().Err(err).Str("order", o.Name).Msg("publish receipt")
		}
	}
}
