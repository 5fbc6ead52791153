package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

type MockClaimTx struct{ mock.Mock }

func (m *MockClaimTx) UserExists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimTx) LockSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]model.SeatReservation, error) {
	args := m.Called(ctx, showtimeID, seatIDs)
	return args.Get(0).([]model.SeatReservation), args.Error(1)
}

func (m *MockClaimTx) MarkBooked(ctx context.Context, showtimeID uint64, seatIDs []uint64, billID uint64) error {
	return m.Called(ctx, showtimeID, seatIDs, billID).Error(0)
}

func (m *MockClaimTx) InsertBill(ctx context.Context, b *model.Bill) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		b.ID = 42
	}
	return args.Error(0)
}

func TestBillFactory_Create(t *testing.T) {
	tx := new(MockClaimTx)
	ctx := context.Background()
	tx.On("InsertBill", ctx, mock.MatchedBy(func(b *model.Bill) bool {
		return b.Code == "tok" && b.Status == model.BillConfirmed
	})).Return(nil)

	seats := []uint64{2, 1}
	b, err := booking.NewBillFactory(clock).Create(ctx, tx, userID, showtimeID, seats, "tok")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, []uint64{2, 1}, b.SeatIDs)

	// the bill does not alias the caller's slice
	seats[0] = 9
	assert.Equal(t, uint64(2), b.SeatIDs[0])
	tx.AssertExpectations(t)
}

func TestBillFactory_Failures(t *testing.T) {
	ctx := context.Background()
	f := booking.NewBillFactory(clock)

	tx := new(MockClaimTx)
	_, err := f.Create(ctx, tx, userID, showtimeID, []uint64{1}, "")
	require.Error(t, err)
	tx.AssertNotCalled(t, "InsertBill", mock.Anything, mock.Anything)

	cause := errors.New("duplicate entry")
	tx.On("InsertBill", ctx, mock.Anything).Return(cause)
	_, err = f.Create(ctx, tx, userID, showtimeID, []uint64{1}, "tok")
	assert.ErrorIs(t, err, cause)
}
