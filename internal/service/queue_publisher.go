// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers can ignore failures without interrupting the
// request flow.
package service

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    q "github.com/iliyamo/prompt-library/internal/queue"
)

// EventPublisher is the interface handlers depend on.
type EventPublisher interface {
    PublishUserRegistered(ctx context.Context, ev q.UserRegisteredEvent) error
    PublishPromptCreated(ctx context.Context, ev q.PromptCreatedEvent) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, q.UserRegisteredEvent) error { return nil }
func (NopPublisher) PublishPromptCreated(context.Context, q.PromptCreatedEvent) error   { return nil }

// AMQPPublisher dials the broker per publish.  Event volume is one message
// per registration or catalog write, so no connection is kept open.
type AMQPPublisher struct {
    URL string
    Log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Log: log}
}

func (p *AMQPPublisher) PublishUserRegistered(ctx context.Context, ev q.UserRegisteredEvent) error {
    return p.publish(ctx, q.UserRegisteredQueue, ev)
}

func (p *AMQPPublisher) PublishPromptCreated(ctx context.Context, ev q.PromptCreatedEvent) error {
    return p.publish(ctx, q.PromptCreatedQueue, ev)
}

// publish declares the durable queue and sends v as a persistent JSON
// message through the default exchange.
func (p *AMQPPublisher) publish(ctx context.Context, queueName string, v any) error {
    log := p.Log.With(zap.String("queue", queueName))

    body, err := json.Marshal(v)
    if err != nil {
        log.Error("marshal event failed", zap.Error(err))
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Warn("rabbitmq dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn("rabbitmq channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        log.Warn("rabbitmq queue declare failed", zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        log.Warn("rabbitmq publish failed", zap.Error(err))
        return err
    }
    return nil
}

// inflight tracks PublishAsync goroutines for Drain.
var inflight sync.WaitGroup

// PublishAsync runs fn in the background with its own timeout so the
// caller's response is never delayed by the broker.
func PublishAsync(fn func(ctx context.Context) error) {
    inflight.Add(1)
    go func() {
        defer inflight.Done()
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = fn(ctx)
    }()
}

// Drain waits for in-flight PublishAsync calls to finish, or for ctx to
// end.  Call it after the HTTP server has stopped accepting requests.
func Drain(ctx context.Context) error {
    done := make(chan struct{})
    go func() {
        inflight.Wait()
        close(done)
    }()
    select {
    case <-done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}
