package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-reservation/internal/queue"
)

// EventPublisher delivers reservation domain events.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, ev queue.ReservationEvent) error
}

// NoopPublisher drops every event. It is used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, queue.ReservationEvent) error { return nil }

// AMQPPublisher publishes to RabbitMQ, dialing once per message. Errors are
// returned to the caller, which decides whether to log them.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// dialTimeout bounds the TCP and handshake phase by ctx's deadline.
func dialTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return time.Until(dl)
	}
	return publishTimeout
}

// Publish declares the durable queue and sends ev as a persistent JSON
// message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, queueName string, ev queue.ReservationEvent) error {
	timeout := dialTimeout(ctx)
	if timeout <= 0 {
		return ctx.Err()
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", queueName, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", queueName, err)
	}
	return nil
}
