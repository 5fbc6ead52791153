package model

import "time"

// SeatState is the reservation state of one seat for one showtime.
type SeatState string

const (
	SeatFree   SeatState = "FREE"
	SeatHeld   SeatState = "HELD" // only while a claim holds the row lock, never persisted
	SeatBooked SeatState = "BOOKED"
)

// CanTransition reports whether a seat may move from s to next. BOOKED back
// to FREE is the cancellation edge.
func (s SeatState) CanTransition(next SeatState) bool {
	switch s {
	case SeatFree:
		return next == SeatHeld || next == SeatBooked
	case SeatHeld:
		return next == SeatBooked || next == SeatFree
	case SeatBooked:
		return next == SeatFree
	}
	return false
}

// SeatReservation links a seat to a showtime and tracks who owns it. There
// is exactly one row per (showtime, seat), created FREE when the showtime is
// scheduled and never deleted.
//
// Fields:
//	ID         – primary key identifier.
//	ShowtimeID – showtime the row belongs to.
//	SeatID     – physical seat.
//	State      – FREE or BOOKED.
//	BillID     – owning bill while BOOKED, nil otherwise.
//	Version    – bumped on every state change.
type SeatReservation struct {
	ID         uint64    // seat_reservations.id
	ShowtimeID uint64    // seat_reservations.showtime_id
	SeatID     uint64    // seat_reservations.seat_id
	State      SeatState // seat_reservations.state
	BillID     *uint64   // seat_reservations.bill_id (nullable)
	Version    uint32    // seat_reservations.version
	UpdatedAt  time.Time // seat_reservations.updated_at
}
