package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// ShowtimeStore reads showtimes.
type ShowtimeStore interface {
	ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, bool, error)
	ListUpcoming(ctx context.Context, movieID, branchID uint64, now time.Time) ([]model.Showtime, error)
}

// SeatMapSource returns the seat map of a showtime, possibly stale.
type SeatMapSource interface {
	Get(ctx context.Context, showtimeID uint64) ([]model.SeatView, error)
}

// ScheduleHandler serves the public schedule listing and the seat map.
type ScheduleHandler struct {
	showtimes ShowtimeStore
	seatMaps  SeatMapSource
	log       *logger.Logger
	now       func() time.Time
}

func NewScheduleHandler(showtimes ShowtimeStore, seatMaps SeatMapSource, log *logger.Logger) *ScheduleHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ScheduleHandler{showtimes: showtimes, seatMaps: seatMaps, log: log, now: time.Now}
}

type scheduleResp struct {
	ID       uint64               `json:"id"`
	MovieID  uint64               `json:"movieId"`
	BranchID uint64               `json:"branchId"`
	RoomID   uint64               `json:"roomId"`
	StartsAt time.Time            `json:"startsAt"`
	EndsAt   time.Time            `json:"endsAt"`
	Status   model.ShowtimeStatus `json:"status"`
}

// queryID reads a required positive id from the query string.
func queryID(c echo.Context, name string) (uint64, error) {
	id, err := utils.ParseID(c.QueryParam(name))
	if err != nil {
		return 0, errBadQuery.Msg(name + " must be a positive integer").Wrap(err)
	}
	return id, nil
}

// List handles GET /api/schedules?movieId=&branchId=.
func (h *ScheduleHandler) List(c echo.Context) error {
	movieID, err := queryID(c, "movieId")
	if err != nil {
		return respond(c, h.log, err)
	}
	branchID, err := queryID(c, "branchId")
	if err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	now := h.now()
	list, err := h.showtimes.ListUpcoming(ctx, movieID, branchID, now)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	out := make([]scheduleResp, 0, len(list))
	for _, st := range list {
		out = append(out, scheduleResp{
			ID:       st.ID,
			MovieID:  st.MovieID,
			BranchID: st.BranchID,
			RoomID:   st.RoomID,
			StartsAt: st.StartsAt,
			EndsAt:   st.EndsAt,
			Status:   st.StatusAt(now),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Seats handles GET /api/seats?scheduleId=. An id that names no showtime
// is a bad request rather than a missing resource.
func (h *ScheduleHandler) Seats(c echo.Context) error {
	id, err := queryID(c, "scheduleId")
	if err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	_, found, err := h.showtimes.ShowtimeByID(ctx, id)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	if !found {
		return respond(c, h.log, errUnknownSchedule)
	}
	seats, err := h.seatMaps.Get(ctx, id)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	if seats == nil {
		seats = []model.SeatView{}
	}
	return c.JSON(http.StatusOK, seats)
}
