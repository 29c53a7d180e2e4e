package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/soulspace-ledger/internal/logging"
)

// Publisher sends events to the broker. Publish errors are returned so the
// caller can log them; they never undo the write that produced the event.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
    Close() error
}

var (
    // ErrPublishBufferFull is returned when events arrive faster than the
    // broker takes them. The event is dropped.
    ErrPublishBufferFull = errors.New("event buffer full")
    // ErrPublisherClosed is returned by Publish after Close.
    ErrPublisherClosed = errors.New("publisher closed")
)

// Publisher defaults used by NewPublisher.
const (
    DefaultBufferSize  = 256
    DefaultDialTimeout = 2 * time.Second
    sendTimeout        = 5 * time.Second
    redialBackoff      = 5 * time.Second
)

// NewPublisher returns an AMQP publisher for url, or a no-op publisher when
// url is empty so the service runs without a broker.
func NewPublisher(url string, log logging.Logger) Publisher {
    if url == "" {
        return NopPublisher{}
    }
    return NewAMQPPublisher(url, DefaultBufferSize, DefaultDialTimeout, log)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// AMQPPublisher queues events in memory and sends them from a single
// background goroutine, so a slow or unreachable broker never holds up the
// request that emitted the event. The goroutine owns conn and ch and
// redials lazily after a failure.
type AMQPPublisher struct {
    url         string
    dialTimeout time.Duration
    log         logging.Logger

    events    chan Event
    done      chan struct{}
    closeOnce sync.Once
    wg        sync.WaitGroup

    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
}

// NewAMQPPublisher starts the sending goroutine. bufferSize bounds how many
// events may wait for the broker; dialTimeout bounds each connection
// attempt including the AMQP handshake.
func NewAMQPPublisher(url string, bufferSize int, dialTimeout time.Duration, log logging.Logger) *AMQPPublisher {
    if bufferSize < 1 {
        bufferSize = 1
    }
    p := &AMQPPublisher{
        url:         url,
        dialTimeout: dialTimeout,
        log:         log,
        events:      make(chan Event, bufferSize),
        done:        make(chan struct{}),
    }
    p.wg.Add(1)
    go p.run()
    return p
}

// Publish hands ev to the sending goroutine and returns at once. When the
// buffer is full the event is dropped with ErrPublishBufferFull.
func (p *AMQPPublisher) Publish(_ context.Context, ev Event) error {
    select {
    case <-p.done:
        return ErrPublisherClosed
    default:
    }
    select {
    case p.events <- ev:
        return nil
    default:
        return ErrPublishBufferFull
    }
}

func (p *AMQPPublisher) run() {
    defer p.wg.Done()
    for {
        select {
        case <-p.done:
            p.flush()
            p.reset()
            return
        case ev := <-p.events:
            if err := p.send(ev); err != nil {
                p.log.Warn(context.Background(), "event dropped", "type", ev.Type, "user_id", ev.UserID, "err", err)
            }
        }
    }
}

// flush sends whatever is still buffered over an already open channel.
// It never dials.
func (p *AMQPPublisher) flush() {
    for {
        select {
        case ev := <-p.events:
            if p.ch == nil || p.ch.IsClosed() {
                continue
            }
            if err := p.send(ev); err != nil {
                p.log.Warn(context.Background(), "event dropped at shutdown", "type", ev.Type, "err", err)
            }
        default:
            return
        }
    }
}

// send marshals ev and publishes it as a persistent message on QueueName.
func (p *AMQPPublisher) send(ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    ch, err := p.channel()
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
    ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
    defer cancel()
    if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns the open channel, dialing and declaring the queue first
// when needed. After a failed dial it refuses to redial until the backoff
// has passed, so a dead broker costs one dial timeout per redialBackoff.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if time.Now().Before(p.retryAt) {
        return nil, errors.New("broker unavailable, waiting to redial")
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(p.dialTimeout),
    })
    if err != nil {
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.log.Info(context.Background(), "event publisher connected", "queue", QueueName)
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close stops the sending goroutine after it flushes what it can, and
// releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.closeOnce.Do(func() { close(p.done) })
    p.wg.Wait()
    return nil
}
