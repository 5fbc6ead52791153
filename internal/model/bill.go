package model

import "time"

// BillStatus is the lifecycle state of a bill. Only CONFIRMED is produced
// today; the others are reserved for cancellation and refunds.
type BillStatus string

const (
	BillConfirmed BillStatus = "CONFIRMED"
	BillCancelled BillStatus = "CANCELLED"
	BillRefunded  BillStatus = "REFUNDED"
)

// Bill is the confirmed booking of a set of seats for one showtime.
//
// Fields:
//	ID         – primary key identifier.
//	Code       – booking token (UUID) printed on the ticket.
//	UserID     – owner of the bill.
//	ShowtimeID – booked showtime.
//	SeatIDs    – booked seats in request order, unique.
//	Status     – CONFIRMED.
//	CreatedAt  – creation timestamp.
type Bill struct {
	ID         uint64     // bills.id
	Code       string     // bills.code
	UserID     uint64     // bills.user_id
	ShowtimeID uint64     // bills.showtime_id
	SeatIDs    []uint64   // bill_seats.seat_id
	Status     BillStatus // bills.status
	CreatedAt  time.Time  // bills.created_at
}
