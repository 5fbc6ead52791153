package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func seq(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func TestValidate_Accepts(t *testing.T) {
	v := booking.NewValidator(newStore(), newStore(), booking.WithValidatorClock(clock))

	vr, err := v.Validate(context.Background(), int64(showtimeID), []int64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, showtimeID, vr.Showtime.ID)
	assert.Equal(t, roomID, vr.RoomID)
	assert.Equal(t, []uint64{3, 1, 2}, vr.SeatIDs)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name       string
		showtimeID int64
		seats      []int64
		want       error
	}{
		{"zero schedule", 0, []int64{1}, booking.ErrValidation},
		{"negative schedule", -4, []int64{1}, booking.ErrValidation},
		{"empty seats", int64(showtimeID), nil, booking.ErrInvalidSeatSet},
		{"too many seats", int64(showtimeID), seq(booking.DefaultMaxSeats + 1), booking.ErrInvalidSeatSet},
		{"negative seat", int64(showtimeID), []int64{1, -2}, booking.ErrInvalidSeatSet},
		{"zero seat", int64(showtimeID), []int64{0}, booking.ErrInvalidSeatSet},
		{"duplicate seats", int64(showtimeID), []int64{1, 2, 1}, booking.ErrInvalidSeatSet},
		{"unknown schedule", 404, []int64{1}, booking.ErrShowtimeNotFound},
		{"ended schedule", int64(endedShow), []int64{1}, booking.ErrExpired},
		{"seat from another room", int64(showtimeID), []int64{1, int64(foreignSeat)}, booking.ErrInvalidSeatSet},
		{"unknown seat", int64(showtimeID), []int64{1234}, booking.ErrInvalidSeatSet},
	}
	store := newStore()
	v := booking.NewValidator(store, store, booking.WithValidatorClock(clock))

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tc.showtimeID, tc.seats)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidate_IsIdempotent(t *testing.T) {
	store := newStore()
	v := booking.NewValidator(store, store, booking.WithValidatorClock(clock))
	ctx := context.Background()

	first, err := v.Validate(ctx, int64(showtimeID), []int64{2, 1})
	require.NoError(t, err)
	second, err := v.Validate(ctx, int64(showtimeID), []int64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rejected := []struct {
		showtimeID int64
		seats      []int64
	}{
		{int64(showtimeID), []int64{1, 2, 1}},
		{int64(endedShow), []int64{1}},
	}
	for _, in := range rejected {
		_, err1 := v.Validate(ctx, in.showtimeID, in.seats)
		_, err2 := v.Validate(ctx, in.showtimeID, in.seats)
		require.Error(t, err1)
		require.Error(t, err2)
		e1, ok1 := apperr.As(err1)
		e2, ok2 := apperr.As(err2)
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, e1.Code, e2.Code)
		assert.Equal(t, e1.Kind, e2.Kind)
		assert.Equal(t, e1.Details, e2.Details)
	}
}

func TestValidate_ReportsForeignSeats(t *testing.T) {
	store := newStore()
	v := booking.NewValidator(store, store, booking.WithValidatorClock(clock))

	_, err := v.Validate(context.Background(), int64(showtimeID), []int64{2, int64(foreignSeat), 555})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []uint64{foreignSeat, 555}, e.Details["seatIds"])
	assert.Equal(t, apperr.KindValidation, e.Kind)
}

func TestValidate_MaxSeatsBoundary(t *testing.T) {
	store := newStore()
	v := booking.NewValidator(store, store, booking.WithValidatorClock(clock), booking.WithMaxSeats(5))
	assert.Equal(t, 5, v.MaxSeats())

	_, err := v.Validate(context.Background(), int64(showtimeID), seq(5))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), int64(showtimeID), seq(6))
	assert.ErrorIs(t, err, booking.ErrInvalidSeatSet)
}

func TestValidate_OpenWindow(t *testing.T) {
	store := newStore()
	v := booking.NewValidator(store, store,
		booking.WithValidatorClock(clock),
		booking.WithOpenWindow(7*24*time.Hour),
	)

	_, err := v.Validate(context.Background(), int64(showtimeID), []int64{1})
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), int64(farShow), []int64{1})
	require.ErrorIs(t, err, booking.ErrNotOpen)
	e, _ := apperr.As(err)
	assert.Equal(t, now.Add(72*time.Hour), e.Details["opensAt"])
}

func TestValidate_EndBoundaryIsExpired(t *testing.T) {
	store := newStore()
	st, _, _ := store.ShowtimeByID(context.Background(), showtimeID)
	v := booking.NewValidator(store, store, booking.WithValidatorClock(func() time.Time { return st.EndsAt }))

	_, err := v.Validate(context.Background(), int64(showtimeID), []int64{1})
	assert.ErrorIs(t, err, booking.ErrExpired)
}

type brokenShowtimes struct{}

func (brokenShowtimes) ShowtimeByID(context.Context, uint64) (model.Showtime, bool, error) {
	return model.Showtime{}, false, errors.New("connection refused")
}

func TestValidate_StoreFailure(t *testing.T) {
	v := booking.NewValidator(brokenShowtimes{}, newStore(), booking.WithValidatorClock(clock))

	_, err := v.Validate(context.Background(), int64(showtimeID), []int64{1})
	require.ErrorIs(t, err, booking.ErrStoreUnavailable)
	assert.Equal(t, apperr.KindFatal, apperr.KindOf(err))
	// cause stays on the error for logs, the message stays generic
	e, _ := apperr.As(err)
	assert.Equal(t, "internal server error", e.Message)
	assert.Contains(t, err.Error(), "connection refused")
}
