package booking_test

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/booking/memstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

var now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

const (
	userID       uint64 = 7
	otherUserID  uint64 = 8
	showtimeID   uint64 = 1
	roomID       uint64 = 10
	foreignSeat  uint64 = 99
	endedShow    uint64 = 2
	farShow      uint64 = 3
	unseededSeat uint64 = 6
)

// newStore seeds two users, room 10 with seats 1..6 (seat 6 has no
// reservation row), seat 99 in room 20, an upcoming showtime 1, an ended
// showtime 2 and showtime 3 starting in ten days.
func newStore() *memstore.Store {
	s := memstore.New()
	s.AddUser(model.User{ID: userID, Username: "ann@example.com"})
	s.AddUser(model.User{ID: otherUserID, Username: "bob@example.com"})
	for i := uint64(1); i <= 6; i++ {
		s.AddSeats(model.Seat{ID: i, RoomID: roomID, RowLabel: "A", SeatNumber: uint32(i)})
	}
	s.AddSeats(model.Seat{ID: foreignSeat, RoomID: 20, RowLabel: "B", SeatNumber: 1})

	s.AddShowtime(model.Showtime{
		ID: showtimeID, MovieID: 4, RoomID: roomID, BranchID: 2,
		StartsAt: now.Add(2 * time.Hour), EndsAt: now.Add(4 * time.Hour),
	}, 1, 2, 3, 4, 5)
	s.AddShowtime(model.Showtime{
		ID: endedShow, MovieID: 4, RoomID: roomID, BranchID: 2,
		StartsAt: now.Add(-3 * time.Hour), EndsAt: now.Add(-time.Hour),
	}, 1, 2, 3, 4, 5)
	s.AddShowtime(model.Showtime{
		ID: farShow, MovieID: 4, RoomID: roomID, BranchID: 2,
		StartsAt: now.Add(240 * time.Hour), EndsAt: now.Add(242 * time.Hour),
	}, 1, 2, 3, 4, 5)
	return s
}
