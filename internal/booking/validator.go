package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// DefaultMaxSeats caps the number of seats in one booking.
const DefaultMaxSeats = 100

// ValidatedRequest is a booking request whose showtime and seats have been
// checked against the catalog. SeatIDs keeps the request order.
type ValidatedRequest struct {
	Showtime model.Showtime
	RoomID   uint64
	SeatIDs  []uint64
}

// Validator checks that a showtime can be booked and that a seat selection
// is legal for it. It never writes.
type Validator struct {
	showtimes  ShowtimeReader
	seats      SeatReader
	maxSeats   int
	openWindow time.Duration
	now        func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxSeats overrides DefaultMaxSeats.
func WithMaxSeats(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxSeats = n
		}
	}
}

// WithOpenWindow only accepts bookings from d before the showtime starts.
// Zero means booking is open as soon as the showtime exists.
func WithOpenWindow(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d >= 0 {
			v.openWindow = d
		}
	}
}

// WithValidatorClock overrides time.Now.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

func NewValidator(showtimes ShowtimeReader, seats SeatReader, opts ...ValidatorOption) *Validator {
	v := &Validator{
		showtimes: showtimes,
		seats:     seats,
		maxSeats:  DefaultMaxSeats,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxSeats reports the configured cap.
func (v *Validator) MaxSeats() int { return v.maxSeats }

// Validate checks showtimeID and seatIDs. Shape checks that need no I/O run
// first so malformed requests never touch the store.
func (v *Validator) Validate(ctx context.Context, showtimeID int64, seatIDs []int64) (ValidatedRequest, error) {
	if showtimeID <= 0 {
		return ValidatedRequest{}, ErrValidation.Msg("scheduleId must be a positive integer")
	}
	ids, err := v.checkSeatSet(seatIDs)
	if err != nil {
		return ValidatedRequest{}, err
	}

	st, found, err := v.showtimes.ShowtimeByID(ctx, uint64(showtimeID))
	if err != nil {
		return ValidatedRequest{}, ErrStoreUnavailable.Wrap(fmt.Errorf("load showtime %d: %w", showtimeID, err))
	}
	if !found {
		return ValidatedRequest{}, ErrShowtimeNotFound
	}
	now := v.now()
	if st.Ended(now) {
		return ValidatedRequest{}, ErrExpired
	}
	if v.openWindow > 0 && now.Before(st.StartsAt.Add(-v.openWindow)) {
		return ValidatedRequest{}, ErrNotOpen.With("opensAt", st.StartsAt.Add(-v.openWindow).UTC())
	}

	seats, err := v.seats.SeatsByIDs(ctx, ids)
	if err != nil {
		return ValidatedRequest{}, ErrStoreUnavailable.Wrap(fmt.Errorf("load seats: %w", err))
	}
	var foreign []uint64
	for _, id := range ids {
		s, ok := seats[id]
		if !ok || s.RoomID != st.RoomID {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		return ValidatedRequest{}, ErrInvalidSeatSet.
			Msg("seats do not belong to the room of this schedule").
			With("seatIds", foreign)
	}
	return ValidatedRequest{Showtime: st, RoomID: st.RoomID, SeatIDs: ids}, nil
}

func (v *Validator) checkSeatSet(seatIDs []int64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, ErrInvalidSeatSet.Msg("listSeatIds must not be empty")
	}
	if len(seatIDs) > v.maxSeats {
		return nil, ErrInvalidSeatSet.Msg(fmt.Sprintf("at most %d seats can be booked at once", v.maxSeats))
	}
	ids := make([]uint64, 0, len(seatIDs))
	seen := make(map[int64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id <= 0 {
			return nil, ErrInvalidSeatSet.Msg("seat ids must be positive integers").With("seatId", id)
		}
		if _, dup := seen[id]; dup {
			return nil, ErrInvalidSeatSet.Msg("seat ids must be unique").With("seatId", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, uint64(id))
	}
	return ids, nil
}
