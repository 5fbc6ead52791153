package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-booking/internal/logger"
)

const (
	auditFile  = "bills.log"
	prefetch   = 50
	maxBackoff = 30 * time.Second
)

// Consumer reads bill.confirmed and appends one line per bill to
// <logDir>/bills.log. It is an audit trail, not a source of truth.
type Consumer struct {
	url    string
	logDir string
	log    *logger.Logger

	mu sync.Mutex // serializes writes to the audit file
}

func NewConsumer(url, logDir string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Discard()
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, logDir: logDir, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker goes away. It returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WarnContext(ctx, "bill consumer: dial failed",
				slog.String("error", err.Error()), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WarnContext(ctx, "bill consumer: reconnecting", slog.String("error", err.Error()))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.log.WarnContext(ctx, "bill consumer: qos failed", slog.String("error", err.Error()))
	}
	if _, err := ch.QueueDeclare(BillConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", BillConfirmedQueue, err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, BillConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", BillConfirmedQueue, err)
	}

	c.log.InfoContext(ctx, "bill consumer: started", slog.String("queue", BillConfirmedQueue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.ErrorContext(ctx, "bill consumer: message rejected", slog.String("error", err.Error()))
				// no requeue, a poison message would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage decodes one event and appends it to the audit file.
func (c *Consumer) handleMessage(body []byte) error {
	var ev BillConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BillID == 0 || ev.Code == "" {
		return errors.New("event without bill id or code")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, auditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

func formatLine(ev BillConfirmedEvent) string {
	seats := make([]string, len(ev.SeatIDs))
	for i, id := range ev.SeatIDs {
		seats[i] = strconv.FormatUint(id, 10)
	}
	return fmt.Sprintf("[%s] Bill confirmed | bill_id=%d | code=%s | user_id=%d | showtime_id=%d | movie_id=%d | branch_id=%d | room_id=%d | starts_at=%s | seats=[%s]\n",
		ev.ConfirmedAt, ev.BillID, ev.Code, ev.UserID, ev.ShowtimeID, ev.MovieID, ev.BranchID, ev.RoomID, ev.StartsAt, strings.Join(seats, ","))
}
