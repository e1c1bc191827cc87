package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBrokerUnavailable is returned while the publisher waits out the
// backoff after a failed connection attempt.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// DefaultPublishBackoff is how long a failed dial suppresses new attempts.
const DefaultPublishBackoff = 30 * time.Second

// Publisher sends registration events to RabbitMQ over one long-lived
// connection and channel, opened on first use and reopened after they
// close.  While the broker is unreachable at most one dial is attempted per
// Backoff; other calls fail immediately with ErrBrokerUnavailable.
type Publisher struct {
    URL     string
    Queue   string
    Backoff time.Duration

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
    dial    func(url string) (*amqp.Connection, error)
    now     func() time.Time
}

// NewPublisher returns a Publisher for the registration events queue.
func NewPublisher(url string) *Publisher {
    return &Publisher{URL: url, Queue: RegistrationQueueName, Backoff: DefaultPublishBackoff}
}

func dialBroker(url string) (*amqp.Connection, error) {
    return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
}

// Publish marshals the event and sends it as a persistent message to the
// publisher's queue through the default exchange.
func (p *Publisher) Publish(ctx context.Context, event RegistrationEvent) error {
    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    p.clock().UTC(),
        Type:         event.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        // Drop the channel so the next call reconnects.
        p.reset()
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// Close releases the connection.  A later Publish reconnects.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// channel returns the open channel, dialling when there is none.  p.mu
// must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if p.clock().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }

    dial := p.dial
    if dial == nil {
        dial = dialBroker
    }
    conn, err := dial(p.URL)
    if err != nil {
        p.backoff()
        log.Printf("rabbitmq: dial failed: %v", err)
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        p.backoff()
        return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
    }
    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        p.backoff()
        return nil, fmt.Errorf("rabbitmq: declare queue: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) backoff() {
    d := p.Backoff
    if d <= 0 {
        d = DefaultPublishBackoff
    }
    p.retryAt = p.clock().Add(d)
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

func (p *Publisher) clock() time.Time {
    if p.now != nil {
        return p.now()
    }
    return time.Now()
}

// Noop discards events.  It is used when EVENTS_ENABLED is false.
type Noop struct{}

func (Noop) Publish(context.Context, RegistrationEvent) error { return nil }
