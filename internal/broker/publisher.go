// Package broker publishes order slips to the print server over AMQP.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/slip"
)

// Routing keys on the slip exchange.
const (
	KeyKitchenTicket = "ticket.kitchen"
	KeyBarTicket     = "ticket.bar"
	KeyReceipt       = "receipt"
)

// Publisher sends a slip under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, s slip.Slip) error
	Close() error
}

// TicketKey maps a ticket's station to its routing key.
func TicketKey(station string) string {
	if station == enum.StationBar {
		return KeyBarTicket
	}
	return KeyKitchenTicket
}

// Nop discards everything. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, slip.Slip) error { return nil }
func (Nop) Close() error                                     { return nil }

// AMQP publishes persistent JSON messages to a topic exchange.
type AMQP struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url and declares the topic exchange.
func Dial(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{exchange: exchange, conn: conn, ch: ch}, nil
}

func (p *AMQP) Publish(ctx context.Context, key string, s slip.Slip) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode slip: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         key,
		Body:         body,
	})
}

func (p *AMQP) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
