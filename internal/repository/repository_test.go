package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var showtimeCols = []string{"id", "movie_id", "room_id", "branch_id", "starts_at", "ends_at", "status", "created_at"}

func TestShowtimeRepo_ShowtimeByID(t *testing.T) {
	db, mock := newDB(t)
	repo := NewShowtimeRepo(db)
	starts := fixedNow.Add(time.Hour)

	mock.ExpectQuery("FROM showtimes WHERE id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows(showtimeCols).AddRow(1, 4, 10, 2, starts, starts.Add(2*time.Hour), "UPCOMING", fixedNow))
	mock.ExpectQuery("FROM showtimes WHERE id").WithArgs(2).
		WillReturnRows(sqlmock.NewRows(showtimeCols))

	st, found, err := repo.ShowtimeByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.Showtime{
		ID: 1, MovieID: 4, RoomID: 10, BranchID: 2,
		StartsAt: starts, EndsAt: starts.Add(2 * time.Hour),
		Status: model.ShowtimeUpcoming, CreatedAt: fixedNow,
	}, st)

	_, found, err = repo.ShowtimeByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepo_ListUpcoming(t *testing.T) {
	db, mock := newDB(t)
	repo := NewShowtimeRepo(db)

	mock.ExpectQuery("FROM showtimes").WithArgs(4, 2, fixedNow).
		WillReturnRows(sqlmock.NewRows(showtimeCols))

	out, err := repo.ListUpcoming(context.Background(), 4, 2, fixedNow)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepo_RefreshStatuses(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec("UPDATE showtimes").
		WithArgs(fixedNow, fixedNow, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewShowtimeRepo(db).RefreshStatuses(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepo_SeatsByIDs(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery("FROM seats").WithArgs(1, 2, 99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "row_label", "seat_number", "seat_type"}).
			AddRow(1, 10, "A", 1, "STANDARD").
			AddRow(2, 10, "A", 2, "VIP"))

	seats, err := NewSeatRepo(db).SeatsByIDs(context.Background(), []uint64{1, 2, 99})
	require.NoError(t, err)
	assert.Len(t, seats, 2)
	assert.Equal(t, "VIP", seats[2].SeatType)
	_, ok := seats[99]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepo_SeatMap(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery("FROM seat_reservations sr").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "row_label", "seat_number", "seat_type", "state"}).
			AddRow(1, 10, "A", 1, "STANDARD", "BOOKED").
			AddRow(2, 10, "A", 2, "STANDARD", "FREE"))

	views, err := NewSeatRepo(db).SeatMap(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, model.SeatBooked, views[0].Status)
	assert.Equal(t, model.SeatFree, views[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func TestBillRepo_ListTicketsGroupsSeats(t *testing.T) {
	db, mock := newDB(t)
	cols := []string{
		"id", "code", "status", "created_at",
		"st_id", "movie_id", "title", "branch_id", "branch", "room_id", "room",
		"starts_at", "ends_at",
		"seat_id", "row_label", "seat_number", "seat_type",
	}
	s, e := fixedNow.Add(time.Hour), fixedNow.Add(3*time.Hour)
	mock.ExpectQuery("FROM bills b").WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, "c9", "CONFIRMED", fixedNow, 1, 4, "Dune", 2, "Downtown", 10, "Hall 1", s, e, 3, "A", 3, "STANDARD").
			AddRow(9, "c9", "CONFIRMED", fixedNow, 1, 4, "Dune", 2, "Downtown", 10, "Hall 1", s, e, 1, "A", 1, "STANDARD").
			AddRow(5, "c5", "CONFIRMED", fixedNow.Add(-time.Hour), 1, 4, "Dune", 2, "Downtown", 10, "Hall 1", s, e, 2, "A", 2, "VIP"))

	tickets, err := NewBillRepo(db).ListTickets(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, uint64(9), tickets[0].BillID)
	assert.Equal(t, []TicketSeat{
		{ID: 3, RowLabel: "A", SeatNumber: 3, SeatType: "STANDARD"},
		{ID: 1, RowLabel: "A", SeatNumber: 1, SeatType: "STANDARD"},
	}, tickets[0].Seats)
	assert.Equal(t, "Dune", tickets[1].MovieTitle)
	assert.Len(t, tickets[1].Seats, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepo_GetForUser(t *testing.T) {
	db, mock := newDB(t)
	repo := NewBillRepo(db)

	mock.ExpectQuery("FROM bills WHERE id").WithArgs(9, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "user_id", "showtime_id", "status", "created_at"}).
			AddRow(9, "c9", 7, 1, "CONFIRMED", fixedNow))
	mock.ExpectQuery("FROM bill_seats").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(3).AddRow(1))
	mock.ExpectQuery("FROM bills WHERE id").WithArgs(9, 8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "user_id", "showtime_id", "status", "created_at"}))

	b, err := repo.GetForUser(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.Equal(t, "c9", b.Code)
	assert.Equal(t, []uint64{3, 1}, b.SeatIDs)
	assert.Equal(t, model.BillConfirmed, b.Status)

	_, err = repo.GetForUser(context.Background(), 9, 8)
	assert.ErrorIs(t, err, ErrBillNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ann@example.com", sqlmock.AnyArg(), "Ann").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "  Ann@Example.com ", "secret1", " Ann ", 4)
	assert.ErrorIs(t, err, ErrUsernameExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UserByID(t *testing.T) {
	db, mock := newDB(t)
	cols := []string{"id", "username", "password_hash", "full_name", "created_at"}
	mock.ExpectQuery("FROM users WHERE id").WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "ann@example.com", "h", "Ann", fixedNow))
	mock.ExpectQuery("FROM users WHERE id").WithArgs(8).
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewUserRepo(db)
	u, found, err := repo.UserByID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ann", u.FullName)

	_, found, err = repo.UserByID(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_Rotate(t *testing.T) {
	db, mock := newDB(t)
	repo := NewTokenRepo(db)
	exp := fixedNow.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).AddRow(7, exp, nil))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs(fixedNow, "old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs(7, "new", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	uid, err := repo.Rotate(context.Background(), "old", "new", exp, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_RotateRejectsRevoked(t *testing.T) {
	db, mock := newDB(t)
	repo := NewTokenRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, fixedNow.Add(time.Hour), fixedNow.Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := repo.Rotate(context.Background(), "old", "new", fixedNow.Add(time.Hour), fixedNow)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_ValidateRefreshExpired(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).AddRow(7, fixedNow, nil))

	_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", fixedNow)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
