package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// CatalogRepo reads movies, branches and rooms. Catalog rows are owned by
// catalog management and never written here.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// likeEscaper escapes the LIKE wildcards so a search term matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func scanMovies(rows *sql.Rows) ([]model.Movie, error) {
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ShowingMovies returns the movies with at least one showtime that has not
// ended at now, by title.
func (r *CatalogRepo) ShowingMovies(ctx context.Context, now time.Time) ([]model.Movie, error) {
	const q = `SELECT m.id, m.title, m.duration_minutes
	           FROM movies m
	           WHERE EXISTS (SELECT 1 FROM showtimes s WHERE s.movie_id = m.id AND s.ends_at > ?)
	           ORDER BY m.title, m.id`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	return scanMovies(rows)
}

// SearchShowingMovies is ShowingMovies narrowed to titles containing name,
// case-insensitively.
func (r *CatalogRepo) SearchShowingMovies(ctx context.Context, name string, now time.Time) ([]model.Movie, error) {
	const q = `SELECT m.id, m.title, m.duration_minutes
	           FROM movies m
	           WHERE LOWER(m.title) LIKE ? ESCAPE '\\'
	             AND EXISTS (SELECT 1 FROM showtimes s WHERE s.movie_id = m.id AND s.ends_at > ?)
	           ORDER BY m.title, m.id`
	rows, err := r.db.QueryContext(ctx, q, containsPattern(name), now.UTC())
	if err != nil {
		return nil, err
	}
	return scanMovies(rows)
}

// MovieByID loads one movie. found is false when no row matches.
func (r *CatalogRepo) MovieByID(ctx context.Context, id uint64) (model.Movie, bool, error) {
	var m model.Movie
	err := r.db.QueryRowContext(ctx, `SELECT id, title, duration_minutes FROM movies WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.DurationMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, false, nil
	}
	if err != nil {
		return model.Movie{}, false, err
	}
	return m, true, nil
}

// BranchesShowing returns the branches with a showtime of movieID that has
// not ended at now.
func (r *CatalogRepo) BranchesShowing(ctx context.Context, movieID uint64, now time.Time) ([]model.Branch, error) {
	const q = `SELECT b.id, b.name, b.address
	           FROM branches b
	           WHERE EXISTS (SELECT 1 FROM showtimes s
	                         WHERE s.branch_id = b.id AND s.movie_id = ? AND s.ends_at > ?)
	           ORDER BY b.name, b.id`
	rows, err := r.db.QueryContext(ctx, q, movieID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Branch{}
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RoomsScheduled returns the rooms of branchID screening movieID at exactly
// startsAt.
func (r *CatalogRepo) RoomsScheduled(ctx context.Context, movieID, branchID uint64, startsAt time.Time) ([]model.Room, error) {
	const q = `SELECT DISTINCT r.id, r.branch_id, r.name, r.seat_rows, r.seat_cols
	           FROM rooms r
	           JOIN showtimes s ON s.room_id = r.id
	           WHERE s.movie_id = ? AND s.branch_id = ? AND s.starts_at = ?
	           ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, q, movieID, branchID, startsAt.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Room{}
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.BranchID, &rm.Name, &rm.SeatRows, &rm.SeatCols); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}
