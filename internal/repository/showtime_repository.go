package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sql.ErrNoRows comparisons
	"time"         // time for status derivation

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ShowtimeRepo reads showtimes. Showtimes are created by catalog management;
// the only write here is the persisted status.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

const showtimeColumns = `id, movie_id, room_id, branch_id, starts_at, ends_at, status, created_at`

func scanShowtime(row interface{ Scan(...any) error }, st *model.Showtime) error {
	var status string
	if err := row.Scan(&st.ID, &st.MovieID, &st.RoomID, &st.BranchID, &st.StartsAt, &st.EndsAt, &status, &st.CreatedAt); err != nil {
		return err
	}
	st.Status = model.ShowtimeStatus(status)
	return nil
}

// ShowtimeByID loads one showtime. found is false when no row matches.
func (r *ShowtimeRepo) ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, bool, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	var st model.Showtime
	err := scanShowtime(r.db.QueryRowContext(ctx, q, id), &st)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Showtime{}, false, nil // unknown id is not a failure
	}
	if err != nil {
		return model.Showtime{}, false, err
	}
	return st, true, nil
}

// ListUpcoming returns the showtimes of movieID at branchID that have not
// ended at now, earliest first.
func (r *ShowtimeRepo) ListUpcoming(ctx context.Context, movieID, branchID uint64, now time.Time) ([]model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + `
	           FROM showtimes
	           WHERE movie_id = ? AND branch_id = ? AND ends_at > ?
	           ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, q, movieID, branchID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Showtime{} // never nil so handlers render []
	for rows.Next() {
		var st model.Showtime
		if err := scanShowtime(rows, &st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RefreshStatuses persists the status derived from now for every showtime
// whose stored status is stale. It returns the number of rows changed.
func (r *ShowtimeRepo) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	const q = `UPDATE showtimes
	           SET status = CASE
	               WHEN ? < starts_at THEN 'UPCOMING'
	               WHEN ? < ends_at THEN 'IN_PROGRESS'
	               ELSE 'ENDED' END
	           WHERE status <> 'ENDED'
	             AND status <> CASE
	               WHEN ? < starts_at THEN 'UPCOMING'
	               WHEN ? < ends_at THEN 'IN_PROGRESS'
	               ELSE 'ENDED' END`
	res, err := r.db.ExecContext(ctx, q, now, now, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
