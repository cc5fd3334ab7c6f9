package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderPaidQueue      = "order.paid"
	OrderCancelledQueue = "order.cancelled"
)

type OrderPaid struct {
	EventType   string    `json:"eventType"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	TotalCents  int       `json:"totalCents"`
	Timestamp   time.Time `json:"timestamp"`
}

type OrderCancelled struct {
	EventType   string    `json:"eventType"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits order lifecycle events for downstream consumers (the
// marketplace publisher and fulfillment tooling listen on these queues).
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderPaidQueue, OrderCancelledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, orderID, orderNumber string, totalCents int) error {
	ev := OrderPaid{
		EventType:   "OrderPaid",
		OrderID:     orderID,
		OrderNumber: orderNumber,
		TotalCents:  totalCents,
		Timestamp:   time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}
	return p.publishJSON(ctx, OrderPaidQueue, body)
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, orderID, orderNumber string) error {
	ev := OrderCancelled{
		EventType:   "OrderCancelled",
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Timestamp:   time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCancelled: %w", err)
	}
	return p.publishJSON(ctx, OrderCancelledQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
