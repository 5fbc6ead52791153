package booking

import (
	"errors"

	"github.com/iliyamo/cinema-booking/internal/apperr"
)

// Client-facing failures of the booking pipeline.
var (
	ErrValidation       = apperr.New(apperr.KindValidation, "validation_error", "request is invalid")
	ErrInvalidSeatSet   = apperr.New(apperr.KindValidation, "invalid_seat_set", "seat selection is invalid")
	ErrShowtimeNotFound = apperr.New(apperr.KindNotFound, "schedule_not_found", "schedule not found")
	ErrUserNotFound     = apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	ErrExpired          = apperr.New(apperr.KindConflict, "schedule_expired", "schedule has already ended")
	ErrNotOpen          = apperr.New(apperr.KindConflict, "booking_not_open", "booking is not open for this schedule yet")
	ErrSeatConflict     = apperr.New(apperr.KindConflict, "seat_conflict", "one or more seats are no longer available")
	ErrTimeout          = apperr.New(apperr.KindUnavailable, "timeout", "booking timed out, please retry")
	ErrStoreUnavailable = apperr.New(apperr.KindFatal, "store_unavailable", "internal server error")
)

// ErrWriteConflict is reported by a Store when the atomic unit lost a race
// at the storage level (deadlock, lock wait timeout, unique violation or a
// conditional update that matched fewer rows than expected). It is the only
// error the coordinator retries.
var ErrWriteConflict = errors.New("booking: concurrent write conflict")
