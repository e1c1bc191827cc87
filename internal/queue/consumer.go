package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultAuditLog is where the consumer appends one line per event.
var DefaultAuditLog = filepath.Join("logs", "registrations.log")

// AuditConsumer reads registration events and appends them to a log file.
type AuditConsumer struct {
    URL     string
    Queue   string
    LogPath string
}

// NewAuditConsumer returns a consumer for the registration events queue
// writing to DefaultAuditLog.
func NewAuditConsumer(url string) *AuditConsumer {
    return &AuditConsumer{URL: url, Queue: RegistrationQueueName, LogPath: DefaultAuditLog}
}

// Run connects to RabbitMQ, declares the queue and consumes messages until
// ctx is cancelled.  Lost connections are retried with exponential backoff
// capped at 30s.  A message that cannot be handled is rejected without
// requeue so the server keeps operating.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
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
        log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("audit-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(a.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(a.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := a.HandleMessage(d.Body); err != nil {
                log.Printf("audit-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // do not requeue, avoids tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its audit line.
func (a *AuditConsumer) HandleMessage(body []byte) error {
    var ev RegistrationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.SessionID == "" {
        return errors.New("event without type or session")
    }
    if err := os.MkdirAll(filepath.Dir(a.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(a.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders an event as a single human-friendly line.
func FormatAuditLine(ev RegistrationEvent) string {
    line := fmt.Sprintf("[%s] %s | session_id=%s | date=%s %s | actor_id=%s",
        ev.OccurredAt, ev.Type, ev.SessionID, ev.SessionDate, ev.SessionTime, ev.ActorID)
    if ev.RegistrationID != "" {
        line += fmt.Sprintf(" | registration_id=%s | user_id=%s | main_list=%t", ev.RegistrationID, ev.UserID, ev.InMainList)
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
