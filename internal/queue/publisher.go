package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName is used when no queue name is configured.
const DefaultQueueName = "booking.notifications"

// Publisher publishes notifications to a durable queue on the default
// exchange.  The connection is opened lazily and re-opened after the
// broker drops it.  Publisher is safe for concurrent use.
type Publisher struct {
    url   string
    queue string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a publisher for the given broker URL and queue.
func NewPublisher(url, queue string) *Publisher {
    if queue == "" {
        queue = DefaultQueueName
    }
    return &Publisher{url: url, queue: queue}
}

// Publish marshals n and publishes it as a persistent message.  Errors
// are returned to the caller, which decides whether they matter.
func (p *Publisher) Publish(ctx context.Context, n Notification) error {
    msg, err := encode(n)
    if err != nil {
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        msg,
    ); err != nil {
        p.reset()
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    var err error
    if p.conn != nil {
        err = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
    return err
}

// channel returns an open channel, dialing when needed.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if err := declare(ch, p.queue); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

func declare(ch *amqp.Channel, queue string) error {
    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        return fmt.Errorf("rabbitmq: queue declare: %w", err)
    }
    return nil
}

func encode(n Notification) (amqp.Publishing, error) {
    body, err := json.Marshal(n)
    if err != nil {
        return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal notification: %w", err)
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         n.Kind,
        Body:         body,
    }, nil
}
