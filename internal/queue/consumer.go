package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// AuditConsumer listens to the domain event queues and appends one line
// per event to an audit log file.
type AuditConsumer struct {
    URL     string
    LogPath string
    Log     *zap.Logger
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.  Malformed messages are rejected without requeue.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            a.Log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = a.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        a.Log.Warn("audit consumer: consume loop ended; reconnecting", zap.Error(err))
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

// delivery pairs a message with the queue it arrived on.
type delivery struct {
    queue string
    amqp.Delivery
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        a.Log.Warn("audit consumer: set QoS failed", zap.Error(err))
    }

    merged := make(chan delivery)
    done := make(chan struct{})
    defer close(done)
    for _, name := range Queues {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        go func(name string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: name, Delivery: d}:
                case <-done:
                    return
                }
            }
        }(name, msgs)
    }

    closed := ch.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            if amqpErr != nil {
                return amqpErr
            }
            return errors.New("channel closed")
        case d := <-merged:
            if err := a.handle(d.queue, d.Body); err != nil {
                a.Log.Warn("audit consumer: handle message failed", zap.String("queue", d.queue), zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (a *AuditConsumer) handle(queueName string, body []byte) error {
    if err := os.MkdirAll(filepath.Dir(a.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir audit dir: %w", err)
    }
    f, err := os.OpenFile(a.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()
    return WriteAuditLine(f, queueName, body)
}

// WriteAuditLine decodes an event from queueName and writes its
// single-line audit form to w.
func WriteAuditLine(w io.Writer, queueName string, body []byte) error {
    var line string
    switch queueName {
    case UserRegisteredQueue:
        var ev UserRegisteredEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] User registered | user_id=%s | email=%q | role=%s\n",
            ev.RegisteredAt, ev.UserID, ev.Email, ev.Role)
    case PromptCreatedQueue:
        var ev PromptCreatedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] Prompt created | prompt_id=%s | author_id=%s | category_id=%s | title=%q | premium=%t\n",
            ev.CreatedAt, ev.PromptID, ev.AuthorID, ev.CategoryID, ev.Title, ev.IsPremium)
    default:
        return fmt.Errorf("unknown queue %q", queueName)
    }
    if _, err := io.WriteString(w, line); err != nil {
        return fmt.Errorf("write audit line: %w", err)
    }
    return nil
}
