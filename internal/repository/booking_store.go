package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingStore runs a booking claim as one REPEATABLE READ transaction over
// the seat reservation and bill repositories.
type BookingStore struct {
	db    *sql.DB
	seats *SeatReservationRepo
	bills *BillRepo
}

var _ booking.Store = (*BookingStore)(nil)

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{
		db:    db,
		seats: NewSeatReservationRepo(db),
		bills: NewBillRepo(db),
	}
}

// RunClaim begins a transaction, hands it to fn and commits when fn succeeds.
// Lock and uniqueness failures, including those surfacing at commit, come
// back as booking.ErrWriteConflict.
func (s *BookingStore) RunClaim(ctx context.Context, fn func(ctx context.Context, tx booking.ClaimTx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	err := withTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		return fn(ctx, &claimTx{store: s, tx: tx})
	})
	if err != nil {
		return classifyWrite(err)
	}
	return nil
}

type claimTx struct {
	store *BookingStore
	tx    *sql.Tx
}

func (c *claimTx) UserExists(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := c.tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (c *claimTx) LockSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]model.SeatReservation, error) {
	return c.store.seats.LockTx(ctx, c.tx, showtimeID, seatIDs)
}

func (c *claimTx) MarkBooked(ctx context.Context, showtimeID uint64, seatIDs []uint64, billID uint64) error {
	return c.store.seats.MarkBookedTx(ctx, c.tx, showtimeID, seatIDs, billID)
}

func (c *claimTx) InsertBill(ctx context.Context, b *model.Bill) error {
	return c.store.bills.CreateTx(ctx, c.tx, b)
}
