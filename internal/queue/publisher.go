package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of a publish.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends reservation events to RabbitMQ. A connection is dialled
// per publish: writes are infrequent and this keeps the publisher free of
// reconnect state.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	logger      *zap.Logger
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithDialTimeout overrides DefaultDialTimeout. Non-positive values are ignored.
func WithDialTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// NewPublisher returns a Publisher for the broker at url. An empty
// queueName means DefaultQueueName.
func NewPublisher(url, queueName string, logger *zap.Logger, opts ...PublisherOption) *Publisher {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{url: url, queue: queueName, dialTimeout: DefaultDialTimeout, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// dial connects within the dial timeout, or sooner if ctx expires first.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// Publish declares the durable queue (idempotent) and publishes ev as a
// persistent JSON message. Errors are logged and returned so the caller can
// decide to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	conn, err := p.dial(ctx)
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err))
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq channel open failed", zap.Error(err))
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.logger.Warn("rabbitmq queue declare failed", zap.String("queue", p.queue), zap.Error(err))
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// NopPublisher drops every event. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
