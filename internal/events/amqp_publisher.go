package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stagepay/pos-core/internal/config"
)

const amqpDialTimeout = 5 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpDialer func(url, queue string) (io.Closer, amqpChannel, error)

// AMQPPublisher forwards events to a durable RabbitMQ queue over one
// long-lived connection, redialled after the broker drops it.
type AMQPPublisher struct {
	url   string
	queue string
	dial  amqpDialer

	mu   sync.Mutex
	conn io.Closer
	ch   amqpChannel
}

// NewAMQPPublisher returns nil when no broker URL is configured. The broker
// is dialled on the first publish.
func NewAMQPPublisher(cfg config.AMQPConfig) *AMQPPublisher {
	if cfg.URL == "" {
		return nil
	}
	return &AMQPPublisher{url: cfg.URL, queue: cfg.Queue, dial: dialBroker}
}

func dialBroker(url, queue string) (io.Closer, amqpChannel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(amqpDialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return conn, ch, nil
}

// Publish sends one persistent JSON message per event.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		p.resetLocked()
		conn, ch, err := p.dial(p.url, p.queue)
		if err != nil {
			return err
		}
		p.conn, p.ch = conn, ch
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.resetLocked()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
