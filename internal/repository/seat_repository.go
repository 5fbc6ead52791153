package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"      // strings builds the IN clause

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatRepo provides read access to physical seats and seat maps.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func uint64Args(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// SeatsByIDs loads the seats with the given ids. Unknown ids are absent from
// the result.
func (r *SeatRepo) SeatsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Seat, error) {
	out := make(map[uint64]model.Seat, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, room_id, row_label, seat_number, seat_type
	      FROM seats
	      WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.RoomID, &s.RowLabel, &s.SeatNumber, &s.SeatType); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// SeatMap lists every seat offered for showtimeID with its current state,
// ordered by row and number. It takes no locks, so a concurrent claim may
// not be visible yet.
func (r *SeatRepo) SeatMap(ctx context.Context, showtimeID uint64) ([]model.SeatView, error) {
	const q = `SELECT se.id, se.room_id, se.row_label, se.seat_number, se.seat_type, sr.state
	           FROM seat_reservations sr
	           JOIN seats se ON se.id = sr.seat_id
	           WHERE sr.showtime_id = ?
	           ORDER BY se.row_label, se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SeatView{}
	for rows.Next() {
		var (
			v     model.SeatView
			state string
		)
		if err := rows.Scan(&v.ID, &v.RoomID, &v.RowLabel, &v.SeatNumber, &v.SeatType, &state); err != nil {
			return nil, err
		}
		v.Status = model.SeatState(state)
		out = append(out, v)
	}
	return out, rows.Err()
}
