package repository // repository for per-showtime seat state

import (
	"context"      // context for managing deadlines
	"database/sql" // sql provides DB interfaces
	"fmt"          // fmt wraps the row-count conflict

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatReservationRepo encapsulates database operations for
// seat_reservations. There is one row per (showtime, seat); the booking
// store moves rows from FREE to BOOKED under row locks.
type SeatReservationRepo struct {
	db *sql.DB
}

// NewSeatReservationRepo constructs a SeatReservationRepo given a DB handle.
func NewSeatReservationRepo(db *sql.DB) *SeatReservationRepo {
	return &SeatReservationRepo{db: db}
}

// LockTx locks the rows of seatIDs for showtimeID with SELECT ... FOR UPDATE.
// InnoDB takes the locks in index order, so the ORDER BY keeps every claim
// on the same ascending sequence. Seats without a row are absent from the
// result.
func (r *SeatReservationRepo) LockTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64) ([]model.SeatReservation, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, showtime_id, seat_id, state, bill_id, version, updated_at
	      FROM seat_reservations
	      WHERE showtime_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)
	      ORDER BY seat_id
	      FOR UPDATE`
	args := append([]any{showtimeID}, uint64Args(seatIDs)...)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SeatReservation
	for rows.Next() {
		var (
			sr     model.SeatReservation
			state  string
			billID sql.NullInt64
		)
		if err := rows.Scan(&sr.ID, &sr.ShowtimeID, &sr.SeatID, &state, &billID, &sr.Version, &sr.UpdatedAt); err != nil {
			return nil, err
		}
		sr.State = model.SeatState(state)
		if billID.Valid {
			id := uint64(billID.Int64)
			sr.BillID = &id
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// MarkBookedTx moves the FREE rows of seatIDs to BOOKED for billID. The
// state guard makes the update conditional; fewer affected rows than seats
// means another claim got there first and is reported as
// booking.ErrWriteConflict.
func (r *SeatReservationRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64, billID uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seat_reservations
	      SET state = 'BOOKED', bill_id = ?, version = version + 1
	      WHERE showtime_id = ? AND state = 'FREE' AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := append([]any{billID, showtimeID}, uint64Args(seatIDs)...)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return fmt.Errorf("%w: booked %d of %d seats", booking.ErrWriteConflict, n, len(seatIDs))
	}
	return nil
}
