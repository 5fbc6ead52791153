package booking

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

// ShowtimeReader resolves showtimes. found is false when the id is unknown.
type ShowtimeReader interface {
	ShowtimeByID(ctx context.Context, id uint64) (st model.Showtime, found bool, err error)
}

// SeatReader resolves physical seats. Unknown ids are absent from the map.
type SeatReader interface {
	SeatsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Seat, error)
}

// Store runs the claim as a single atomic unit. When fn returns an error the
// unit is rolled back and the error is returned unchanged; otherwise it is
// committed and a commit failure is returned.
type Store interface {
	RunClaim(ctx context.Context, fn func(ctx context.Context, tx ClaimTx) error) error
}

// ClaimTx is the set of operations available inside the atomic unit.
type ClaimTx interface {
	// UserExists reports whether the booking user exists.
	UserExists(ctx context.Context, userID uint64) (bool, error)
	// LockSeats locks the reservation rows of seatIDs for showtimeID in the
	// given order, which callers keep ascending. Seats without a row are
	// absent from the result.
	LockSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]model.SeatReservation, error)
	// MarkBooked moves the locked FREE rows to BOOKED for billID. Fewer
	// affected rows than seatIDs is reported as ErrWriteConflict.
	MarkBooked(ctx context.Context, showtimeID uint64, seatIDs []uint64, billID uint64) error
	// InsertBill persists b and its seats and assigns b.ID.
	InsertBill(ctx context.Context, b *model.Bill) error
}

// SeatMapInvalidator drops cached seat maps after a successful booking.
type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, showtimeID uint64) error
}

// EventPublisher announces confirmed bills.
type EventPublisher interface {
	PublishBillConfirmed(ctx context.Context, ev queue.BillConfirmedEvent) error
}
