package model

import "time"

// ShowtimeStatus is derived from the current time and the showtime window.
type ShowtimeStatus string

const (
	ShowtimeUpcoming   ShowtimeStatus = "UPCOMING"
	ShowtimeInProgress ShowtimeStatus = "IN_PROGRESS"
	ShowtimeEnded      ShowtimeStatus = "ENDED"
)

// Showtime is a scheduled screening of a movie in a room of a branch. Rows
// are created by catalog management; the booking core only reads them.
//
// Fields:
//	ID        – primary key identifier.
//	MovieID   – movie being screened.
//	RoomID    – room (hall) where the screening happens.
//	BranchID  – cinema branch owning the room.
//	StartsAt  – when the screening begins (UTC).
//	EndsAt    – when the screening ends; start plus movie duration.
//	Status    – last status persisted by the status job.
type Showtime struct {
	ID        uint64         // showtimes.id
	MovieID   uint64         // showtimes.movie_id
	RoomID    uint64         // showtimes.room_id
	BranchID  uint64         // showtimes.branch_id
	StartsAt  time.Time      // showtimes.starts_at
	EndsAt    time.Time      // showtimes.ends_at
	Status    ShowtimeStatus // showtimes.status
	CreatedAt time.Time      // showtimes.created_at
}

// StatusAt derives the status of the showtime at instant now.
func (s Showtime) StatusAt(now time.Time) ShowtimeStatus {
	switch {
	case now.Before(s.StartsAt):
		return ShowtimeUpcoming
	case now.Before(s.EndsAt):
		return ShowtimeInProgress
	default:
		return ShowtimeEnded
	}
}

// Ended reports whether bookings are closed because the screening is over.
func (s Showtime) Ended(now time.Time) bool {
	return !now.Before(s.EndsAt)
}
