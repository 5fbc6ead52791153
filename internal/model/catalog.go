package model

// Movie is a film in the catalog. Title is served as "name".
//
// Fields:
//	ID              – primary key identifier.
//	Title           – display title.
//	DurationMinutes – running time; a showtime ends this long after it starts.
type Movie struct {
	ID              uint64 `json:"id"`              // movies.id
	Title           string `json:"name"`            // movies.title
	DurationMinutes uint32 `json:"durationMinutes"` // movies.duration_minutes
}

// Branch is a cinema venue. It contains rooms.
type Branch struct {
	ID      uint64 `json:"id"`      // branches.id
	Name    string `json:"name"`    // branches.name
	Address string `json:"address"` // branches.address
}

// Room is a screening room of a branch with a rectangular seat layout.
type Room struct {
	ID       uint64 `json:"id"`       // rooms.id
	BranchID uint64 `json:"branchId"` // rooms.branch_id
	Name     string `json:"name"`     // rooms.name
	SeatRows uint32 `json:"seatRows"` // rooms.seat_rows
	SeatCols uint32 `json:"seatCols"` // rooms.seat_cols
}
