package model

// Seat describes a physical seat in a room. Seats are seeded with the room
// and never change afterwards.
//
// Fields:
//	ID         – primary key identifier.
//	RoomID     – room to which this seat belongs.
//	RowLabel   – letter designating the row.
//	SeatNumber – number of the seat within the row.
//	SeatType   – STANDARD, VIP or COUPLE.
type Seat struct {
	ID         uint64 // seats.id
	RoomID     uint64 // seats.room_id
	RowLabel   string // seats.row_label
	SeatNumber uint32 // seats.seat_number
	SeatType   string // seats.seat_type
}

// SeatView is one entry of a showtime seat map as served to clients and
// cached in Redis.
type SeatView struct {
	ID         uint64    `json:"id"`
	RoomID     uint64    `json:"roomId"`
	RowLabel   string    `json:"rowLabel"`
	SeatNumber uint32    `json:"seatNumber"`
	SeatType   string    `json:"seatType"`
	Status     SeatState `json:"status"`
}
