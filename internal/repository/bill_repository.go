package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BillRepo provides persistence for bills and their seats. Seats booked
// under a bill are stored in bill_seats, keeping the order of the request.
type BillRepo struct {
	db *sql.DB
}

// NewBillRepo returns a new BillRepo bound to the given database.
func NewBillRepo(db *sql.DB) *BillRepo { return &BillRepo{db: db} }

// CreateTx inserts b and one bill_seats row per seat within tx and assigns
// the generated ID to b. The caller commits or rolls back.
func (r *BillRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Bill) error {
	const q = `INSERT INTO bills (code, user_id, showtime_id, status, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.Code, b.UserID, b.ShowtimeID, string(b.Status), b.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(b.SeatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO bill_seats (bill_id, showtime_id, seat_id, position) VALUES `
	args := make([]any, 0, len(b.SeatIDs)*4)
	for i, seatID := range b.SeatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, b.ID, b.ShowtimeID, seatID, i)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUser returns bill billID when it belongs to userID, and
// ErrBillNotFound otherwise. Seats are returned in booking order.
func (r *BillRepo) GetForUser(ctx context.Context, billID, userID uint64) (*model.Bill, error) {
	const q = `SELECT id, code, user_id, showtime_id, status, created_at
	           FROM bills WHERE id = ? AND user_id = ?`
	var (
		b      model.Bill
		status string
	)
	err := r.db.QueryRowContext(ctx, q, billID, userID).Scan(&b.ID, &b.Code, &b.UserID, &b.ShowtimeID, &status, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = model.BillStatus(status)

	rows, err := r.db.QueryContext(ctx, `SELECT seat_id FROM bill_seats WHERE bill_id = ? ORDER BY position`, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		b.SeatIDs = append(b.SeatIDs, id)
	}
	return &b, rows.Err()
}

// TicketSeat is a seat printed on a ticket.
type TicketSeat struct {
	ID         uint64 `json:"id"`
	RowLabel   string `json:"rowLabel"`
	SeatNumber uint32 `json:"seatNumber"`
	SeatType   string `json:"seatType"`
}

// Ticket is a bill joined with its showtime, venue and seats, as listed by
// GET /api/tickets.
type Ticket struct {
	BillID     uint64       `json:"billId"`
	Code       string       `json:"code"`
	Status     string       `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	ScheduleID uint64       `json:"scheduleId"`
	MovieID    uint64       `json:"movieId"`
	MovieTitle string       `json:"movieTitle"`
	BranchID   uint64       `json:"branchId"`
	BranchName string       `json:"branchName"`
	RoomID     uint64       `json:"roomId"`
	RoomName   string       `json:"roomName"`
	StartsAt   time.Time    `json:"startsAt"`
	EndsAt     time.Time    `json:"endsAt"`
	Seats      []TicketSeat `json:"seats"`
}

// ListTickets returns the bills of userID, newest first. The result is an
// empty slice when the user has none.
func (r *BillRepo) ListTickets(ctx context.Context, userID uint64) ([]Ticket, error) {
	const q = `SELECT b.id, b.code, b.status, b.created_at,
	                  st.id, st.movie_id, m.title, st.branch_id, br.name, st.room_id, ro.name,
	                  st.starts_at, st.ends_at,
	                  se.id, se.row_label, se.seat_number, se.seat_type
	           FROM bills b
	           JOIN showtimes st ON st.id = b.showtime_id
	           JOIN movies m ON m.id = st.movie_id
	           JOIN branches br ON br.id = st.branch_id
	           JOIN rooms ro ON ro.id = st.room_id
	           JOIN bill_seats bs ON bs.bill_id = b.id
	           JOIN seats se ON se.id = bs.seat_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id DESC, bs.position`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Ticket{}
	for rows.Next() {
		var (
			t Ticket
			s TicketSeat
		)
		if err := rows.Scan(
			&t.BillID, &t.Code, &t.Status, &t.CreatedAt,
			&t.ScheduleID, &t.MovieID, &t.MovieTitle, &t.BranchID, &t.BranchName, &t.RoomID, &t.RoomName,
			&t.StartsAt, &t.EndsAt,
			&s.ID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
		); err != nil {
			return nil, err
		}
		// rows of one bill are adjacent
		if n := len(out); n > 0 && out[n-1].BillID == t.BillID {
			out[n-1].Seats = append(out[n-1].Seats, s)
			continue
		}
		t.Seats = []TicketSeat{s}
		out = append(out, t)
	}
	return out, rows.Err()
}
