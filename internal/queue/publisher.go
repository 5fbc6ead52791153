package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-booking/internal/logger"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("queue: publisher closed")

// Publisher publishes BillConfirmedEvent messages on a long-lived
// connection. The connection and channel are opened on first use and
// reopened after a failure, so a broker outage costs the events published
// during it and nothing else.
type Publisher struct {
	url string
	log *logger.Logger
	now func() time.Time

	// lock is a one-slot semaphore so waiting publishers give up with
	// their context.
	lock   chan struct{}
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

func NewPublisher(url string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{url: url, log: log, now: time.Now, lock: make(chan struct{}, 1)}
}

const defaultDialTimeout = 30 * time.Second

// dialTimeout bounds the broker dial by ctx's deadline.
func dialTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	d := time.Until(deadline)
	if d <= 0 {
		return time.Millisecond
	}
	return min(d, defaultDialTimeout)
}

// channel returns an open channel with the queue declared. Callers hold lock.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(dialTimeout(ctx)),
		})
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(BillConfirmedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare %s: %w", BillConfirmedQueue, err)
	}
	p.ch = ch
	return ch, nil
}

// reset drops the channel so the next publish reopens it. Callers hold lock.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

// newPublishing wraps ev in a persistent JSON message. The bill code is the
// message id so consumers can drop duplicates.
func newPublishing(ev BillConfirmedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.Code,
		Timestamp:    now.UTC(),
		Type:         BillConfirmedQueue,
		Body:         body,
	}, nil
}

// PublishBillConfirmed publishes ev to the bill.confirmed queue through the
// default exchange.
func (p *Publisher) PublishBillConfirmed(ctx context.Context, ev BillConfirmedEvent) error {
	msg, err := newPublishing(ev, p.now())
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	select {
	case p.lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish bill %d: %w", ev.BillID, ctx.Err())
	}
	defer func() { <-p.lock }()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", BillConfirmedQueue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish bill %d: %w", ev.BillID, err)
	}
	p.log.DebugContext(ctx, "bill event published", slog.Uint64("bill_id", ev.BillID))
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.lock <- struct{}{}
	defer func() { <-p.lock }()
	p.closed = true
	p.reset()
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
	}
	return nil
}
