package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/soulspace-ledger/internal/logging"
)

// Consumer reads engagement events from QueueName and appends one line per
// event to an activity log file.
type Consumer struct {
    URL     string
    LogPath string
    Log     logging.Logger
}

// NewConsumer builds a consumer writing to logPath (logs/activity.log when
// empty).
func NewConsumer(url, logPath string, log logging.Logger) *Consumer {
    if logPath == "" {
        logPath = filepath.Join("logs", "activity.log")
    }
    return &Consumer{URL: url, LogPath: logPath, Log: log}
}

// Run connects and consumes until ctx is cancelled, redialing with an
// exponential backoff capped at 30s whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn(ctx, "activity consumer: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn(ctx, "activity consumer: loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn(ctx, "activity consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
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
            if err := c.handleMessage(d.Body); err != nil {
                c.Log.Error(ctx, "activity consumer: handle message failed", "err", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.UserID == 0 {
        return fmt.Errorf("incomplete event %q", ev.ID)
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev Event) string {
    at := ev.OccurredAt.UTC().Format(time.RFC3339)
    switch ev.Type {
    case TypeVisitRecorded:
        return fmt.Sprintf("[%s] Visit recorded | user_id=%d | day=%s | day_count=%d\n",
            at, ev.UserID, ev.DayKey, ev.DayCount)
    case TypeQuoteDrawn:
        return fmt.Sprintf("[%s] Quote drawn | user_id=%d | day=%s | quote_id=%d | author=%q | fallback=%t\n",
            at, ev.UserID, ev.DayKey, ev.QuoteID, ev.Author, ev.Fallback)
    case TypeJournalAppended:
        return fmt.Sprintf("[%s] Journal entry | user_id=%d | day=%s | mood=%s\n",
            at, ev.UserID, ev.DayKey, ev.Mood)
    default:
        return fmt.Sprintf("[%s] %s | user_id=%d | day=%s\n", at, ev.Type, ev.UserID, ev.DayKey)
    }
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
