// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

// BillConfirmedQueue is the durable queue carrying BillConfirmedEvent.
const BillConfirmedQueue = "bill.confirmed"

// BillConfirmedEvent is published once a bill has been committed. It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type BillConfirmedEvent struct {
	BillID      uint64   `json:"bill_id"`
	Code        string   `json:"code"`
	UserID      uint64   `json:"user_id"`
	ShowtimeID  uint64   `json:"showtime_id"`
	MovieID     uint64   `json:"movie_id"`
	RoomID      uint64   `json:"room_id"`
	BranchID    uint64   `json:"branch_id"`
	StartsAt    string   `json:"starts_at"`
	SeatIDs     []uint64 `json:"seat_ids"`
	ConfirmedAt string   `json:"confirmed_at"`
}
