package booking

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const (
	DefaultClaimTimeout    = 5 * time.Second
	DefaultConflictRetries = 1
)

// ClaimResult is the outcome of a successful claim.
type ClaimResult struct {
	Bill     *model.Bill
	Attempts int
}

// Coordinator claims a set of seats for a showtime all-or-nothing and hands
// the claimed seats to the BillFactory inside the same atomic unit.
type Coordinator struct {
	store    Store
	bills    *BillFactory
	timeout  time.Duration
	retries  int
	newToken func() string
	log      *logger.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClaimTimeout bounds a whole claim, retries included.
func WithClaimTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConflictRetries sets how many times a storage write conflict is
// retried before it is reported as ErrSeatConflict.
func WithConflictRetries(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithTokenSource overrides the booking token generator.
func WithTokenSource(fn func() string) CoordinatorOption {
	return func(c *Coordinator) {
		if fn != nil {
			c.newToken = fn
		}
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(l *logger.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

func NewCoordinator(store Store, bills *BillFactory, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:    store,
		bills:    bills,
		timeout:  DefaultClaimTimeout,
		retries:  DefaultConflictRetries,
		newToken: func() string { return uuid.NewString() },
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Claim books seatIDs of showtimeID for userID. Either every seat ends up
// BOOKED under one new bill or nothing changes.
//
// Rows are locked in ascending seat id order whatever the request order, so
// two claims over intersecting sets cannot wait on each other in a cycle.
func (c *Coordinator) Claim(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*ClaimResult, error) {
	if len(seatIDs) == 0 {
		return nil, ErrInvalidSeatSet.Msg("listSeatIds must not be empty")
	}
	ordered := slices.Clone(seatIDs)
	slices.Sort(ordered)
	if n := len(slices.Compact(slices.Clone(ordered))); n != len(ordered) {
		return nil, ErrInvalidSeatSet.Msg("seat ids must be unique")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token := c.newToken()
	for attempt := 1; ; attempt++ {
		bill, err := c.claimOnce(ctx, userID, showtimeID, seatIDs, ordered, token)
		if err == nil {
			return &ClaimResult{Bill: bill, Attempts: attempt}, nil
		}
		if errors.Is(err, ErrWriteConflict) && attempt <= c.retries && ctx.Err() == nil {
			c.log.DebugContext(ctx, "claim write conflict, retrying",
				slog.Uint64("showtime_id", showtimeID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}
		return nil, c.classify(ctx, err)
	}
}

func (c *Coordinator) claimOnce(ctx context.Context, userID, showtimeID uint64, seatIDs, ordered []uint64, token string) (*model.Bill, error) {
	var bill *model.Bill
	err := c.store.RunClaim(ctx, func(ctx context.Context, tx ClaimTx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}

		rows, err := tx.LockSeats(ctx, showtimeID, ordered)
		if err != nil {
			return err
		}
		if len(rows) != len(ordered) {
			return ErrInvalidSeatSet.
				Msg("seats are not offered for this schedule").
				With("seatIds", missingSeats(ordered, rows))
		}
		var busy []uint64
		for _, r := range rows {
			if r.State != model.SeatFree {
				busy = append(busy, r.SeatID)
			}
		}
		if len(busy) > 0 {
			return ErrSeatConflict.With("seatIds", busy)
		}

		b, err := c.bills.Create(ctx, tx, userID, showtimeID, seatIDs, token)
		if err != nil {
			return err
		}
		if err := tx.MarkBooked(ctx, showtimeID, ordered, b.ID); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// classify maps whatever ended the claim onto the taxonomy. Store faults are
// wrapped so the cause reaches the logs and never the client.
func (c *Coordinator) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout.Wrap(err)
	case errors.Is(err, context.Canceled):
		return ErrTimeout.Msg("booking was cancelled").Wrap(err)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout.Wrap(err)
	}
	if errors.Is(err, ErrWriteConflict) {
		return ErrSeatConflict.Wrap(err)
	}
	return ErrStoreUnavailable.Wrap(err)
}

func missingSeats(ordered []uint64, rows []model.SeatReservation) []uint64 {
	have := make(map[uint64]struct{}, len(rows))
	for _, r := range rows {
		have[r.SeatID] = struct{}{}
	}
	var out []uint64
	for _, id := range ordered {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
