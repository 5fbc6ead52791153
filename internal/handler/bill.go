package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const qrSize = 256

// Booker books seats for an authenticated principal.
type Booker interface {
	Book(ctx context.Context, p auth.Principal, req booking.Request) (*booking.Receipt, error)
}

// BillReader loads the bills of a user.
type BillReader interface {
	GetForUser(ctx context.Context, billID, userID uint64) (*model.Bill, error)
	ListTickets(ctx context.Context, userID uint64) ([]repository.Ticket, error)
}

// BillHandler serves bill creation, the ticket list and bill QR codes.
type BillHandler struct {
	booker Booker
	bills  BillReader
	log    *logger.Logger
}

func NewBillHandler(booker Booker, bills BillReader, log *logger.Logger) *BillHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &BillHandler{booker: booker, bills: bills, log: log}
}

// createBillReq keeps the ids signed so that negative values reach the
// booking validator instead of failing JSON decoding.
type createBillReq struct {
	UserID     *int64  `json:"userId" validate:"required,gt=0"`
	ScheduleID *int64  `json:"scheduleId" validate:"required"`
	SeatIDs    []int64 `json:"listSeatIds" validate:"required"`
}

type billResp struct {
	ID         uint64    `json:"id"`
	Code       string    `json:"code"`
	UserID     uint64    `json:"userId"`
	ScheduleID uint64    `json:"scheduleId"`
	SeatIDs    []uint64  `json:"listSeatIds"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	StartsAt   time.Time `json:"startsAt"`
}

// Create handles POST /api/bills/create-new-bill.
func (h *BillHandler) Create(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respond(c, h.log, auth.ErrUnauthenticated)
	}
	var req createBillReq
	if err := bind(c, &req, nil); err != nil {
		return respond(c, h.log, err)
	}

	receipt, err := h.booker.Book(c.Request().Context(), p, booking.Request{
		UserID:     uint64(*req.UserID),
		ScheduleID: *req.ScheduleID,
		SeatIDs:    req.SeatIDs,
	})
	if err != nil {
		return respond(c, h.log, err)
	}
	b := receipt.Bill
	return c.JSON(http.StatusOK, billResp{
		ID:         b.ID,
		Code:       b.Code,
		UserID:     b.UserID,
		ScheduleID: b.ShowtimeID,
		SeatIDs:    b.SeatIDs,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		StartsAt:   receipt.Showtime.StartsAt,
	})
}

// Tickets handles GET /api/tickets?userId=. RequireSelf has already matched
// userId against the caller.
func (h *BillHandler) Tickets(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respond(c, h.log, auth.ErrUnauthenticated)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tickets, err := h.bills.ListTickets(ctx, p.UserID)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	if tickets == nil {
		tickets = []repository.Ticket{}
	}
	return c.JSON(http.StatusOK, tickets)
}

// QRCode handles GET /api/bills/:id/qrcode and returns a PNG encoding the
// bill code. Bills of other users are reported as missing.
func (h *BillHandler) QRCode(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respond(c, h.log, auth.ErrUnauthenticated)
	}
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		return respond(c, h.log, errBadQuery.Msg("id must be a positive integer"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.bills.GetForUser(ctx, id, p.UserID)
	if errors.Is(err, repository.ErrBillNotFound) {
		return respond(c, h.log, errBillNotFound)
	}
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	png, err := utils.QRCodePNG(b.Code, qrSize)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=3600")
	return c.Blob(http.StatusOK, "image/png", png)
}
