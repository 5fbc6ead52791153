// Package booking implements seat booking for a showtime: validation of the
// request, the all-or-nothing seat claim and creation of the bill.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

const afterCommitTimeout = 3 * time.Second

// Request is a booking request as received from a client.
type Request struct {
	UserID     uint64
	ScheduleID int64
	SeatIDs    []int64
}

// Receipt is returned for a committed booking.
type Receipt struct {
	Bill     *model.Bill
	Showtime model.Showtime
	Attempts int
}

// Service runs a booking request through authorization, validation and the
// claim, then performs the post-commit side effects.
type Service struct {
	validator   *Validator
	coordinator *Coordinator
	seatMaps    SeatMapInvalidator
	events      EventPublisher
	log         *logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithSeatMapInvalidator(inv SeatMapInvalidator) ServiceOption {
	return func(s *Service) { s.seatMaps = inv }
}

func WithEventPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(v *Validator, c *Coordinator, opts ...ServiceOption) *Service {
	s := &Service{validator: v, coordinator: c, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book books req on behalf of p. A principal can only book for itself.
func (s *Service) Book(ctx context.Context, p auth.Principal, req Request) (*Receipt, error) {
	flow := NewFlow()

	if err := auth.RequireSelf(p, req.UserID); err != nil {
		return nil, s.reject(ctx, flow, req, err)
	}
	s.advance(flow, StateAuthorized)

	vr, err := s.validator.Validate(ctx, req.ScheduleID, req.SeatIDs)
	if err != nil {
		return nil, s.reject(ctx, flow, req, err)
	}
	s.advance(flow, StateValidated)

	res, err := s.coordinator.Claim(ctx, req.UserID, vr.Showtime.ID, vr.SeatIDs)
	if err != nil {
		return nil, s.reject(ctx, flow, req, err)
	}
	// the claim and the bill commit together
	s.advance(flow, StateClaimed)
	s.advance(flow, StateBilled)

	s.log.LogBillCreated(ctx, res.Bill.ID, res.Bill.UserID, res.Bill.ShowtimeID, res.Bill.SeatIDs, res.Attempts)
	s.afterCommit(ctx, vr.Showtime, res.Bill)

	s.advance(flow, StateResponded)
	return &Receipt{Bill: res.Bill, Showtime: vr.Showtime, Attempts: res.Attempts}, nil
}

// afterCommit runs best-effort side effects. Their failure never undoes or
// fails a committed booking.
func (s *Service) afterCommit(ctx context.Context, st model.Showtime, b *model.Bill) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()

	if s.seatMaps != nil {
		if err := s.seatMaps.Invalidate(ctx, b.ShowtimeID); err != nil {
			s.log.WarnContext(ctx, "seat map invalidation failed",
				slog.Uint64("showtime_id", b.ShowtimeID), slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		ev := queue.BillConfirmedEvent{
			BillID:      b.ID,
			Code:        b.Code,
			UserID:      b.UserID,
			ShowtimeID:  b.ShowtimeID,
			MovieID:     st.MovieID,
			RoomID:      st.RoomID,
			BranchID:    st.BranchID,
			StartsAt:    st.StartsAt.UTC().Format(time.RFC3339),
			SeatIDs:     b.SeatIDs,
			ConfirmedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishBillConfirmed(ctx, ev); err != nil {
			s.log.WarnContext(ctx, "bill event publish failed",
				slog.Uint64("bill_id", b.ID), slog.String("error", err.Error()))
		}
	}
}

func (s *Service) advance(f *Flow, next State) {
	if err := f.Advance(next); err != nil {
		panic(err)
	}
}

func (s *Service) reject(ctx context.Context, f *Flow, req Request, err error) error {
	stage := f.Reject(err)
	showtimeID := uint64(0)
	if req.ScheduleID > 0 {
		showtimeID = uint64(req.ScheduleID)
	}
	s.log.LogClaimRejected(ctx, req.UserID, showtimeID, string(stage), err)
	return fmt.Errorf("%s: %w", stage, err)
}
