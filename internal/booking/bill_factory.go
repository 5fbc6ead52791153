package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BillFactory creates the durable bill for a successful claim. It only runs
// inside the coordinator's atomic unit, so a failure here undoes the claim.
type BillFactory struct {
	now func() time.Time
}

func NewBillFactory(now func() time.Time) *BillFactory {
	if now == nil {
		now = time.Now
	}
	return &BillFactory{now: now}
}

// Create inserts a CONFIRMED bill for seatIDs using token as its code.
func (f *BillFactory) Create(ctx context.Context, tx ClaimTx, userID, showtimeID uint64, seatIDs []uint64, token string) (*model.Bill, error) {
	if token == "" {
		return nil, errors.New("bill factory: empty booking token")
	}
	b := &model.Bill{
		Code:       token,
		UserID:     userID,
		ShowtimeID: showtimeID,
		SeatIDs:    append([]uint64(nil), seatIDs...),
		Status:     model.BillConfirmed,
		CreatedAt:  f.now().UTC(),
	}
	if err := tx.InsertBill(ctx, b); err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}
