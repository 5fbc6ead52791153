package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type MockShowtimes struct{ mock.Mock }

func (m *MockShowtimes) ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Showtime), args.Bool(1), args.Error(2)
}

func (m *MockShowtimes) ListUpcoming(ctx context.Context, movieID, branchID uint64, now time.Time) ([]model.Showtime, error) {
	args := m.Called(ctx, movieID, branchID, now)
	list, _ := args.Get(0).([]model.Showtime)
	return list, args.Error(1)
}

type MockSeatMaps struct{ mock.Mock }

func (m *MockSeatMaps) Get(ctx context.Context, showtimeID uint64) ([]model.SeatView, error) {
	args := m.Called(ctx, showtimeID)
	v, _ := args.Get(0).([]model.SeatView)
	return v, args.Error(1)
}

func scheduleSetup(t *testing.T) (*echo.Echo, *MockShowtimes, *MockSeatMaps) {
	t.Helper()
	showtimes, seatMaps := new(MockShowtimes), new(MockSeatMaps)
	h := NewScheduleHandler(showtimes, seatMaps, nil)
	h.now = clock
	e := newEcho()
	e.GET("/api/schedules", h.List)
	e.GET("/api/seats", h.Seats, as(7))
	t.Cleanup(func() {
		showtimes.AssertExpectations(t)
		seatMaps.AssertExpectations(t)
	})
	return e, showtimes, seatMaps
}

func TestListSchedules(t *testing.T) {
	e, showtimes, _ := scheduleSetup(t)
	showtimes.On("ListUpcoming", mock.Anything, uint64(4), uint64(2), now).Return([]model.Showtime{
		{ID: 1, MovieID: 4, BranchID: 2, RoomID: 10, StartsAt: now.Add(time.Hour), EndsAt: now.Add(3 * time.Hour)},
		{ID: 2, MovieID: 4, BranchID: 2, RoomID: 11, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
	}, nil)

	rec := do(e, http.MethodGet, "/api/schedules?movieId=4&branchId=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out []scheduleResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, model.ShowtimeUpcoming, out[0].Status)
	assert.Equal(t, model.ShowtimeInProgress, out[1].Status)
}

func TestListSchedules_Empty(t *testing.T) {
	e, showtimes, _ := scheduleSetup(t)
	showtimes.On("ListUpcoming", mock.Anything, uint64(4), uint64(2), now).Return([]model.Showtime{}, nil)

	rec := do(e, http.MethodGet, "/api/schedules?movieId=4&branchId=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListSchedules_BadParams(t *testing.T) {
	e, _, _ := scheduleSetup(t)
	for _, q := range []string{
		"",
		"?movieId=4",
		"?branchId=2",
		"?movieId=&branchId=2",
		"?movieId=abc&branchId=2",
		"?movieId=-4&branchId=2",
		"?movieId=4&branchId=0",
		"?movieId=4&branchId=99999999999999999999",
		"?movieId=%204&branchId=2",
	} {
		rec := do(e, http.MethodGet, "/api/schedules"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSeats(t *testing.T) {
	e, showtimes, seatMaps := scheduleSetup(t)
	showtimes.On("ShowtimeByID", mock.Anything, uint64(1)).Return(model.Showtime{ID: 1}, true, nil)
	showtimes.On("ShowtimeByID", mock.Anything, uint64(9)).Return(model.Showtime{}, false, nil)
	seatMaps.On("Get", mock.Anything, uint64(1)).Return([]model.SeatView{
		{ID: 1, RoomID: 10, RowLabel: "A", SeatNumber: 1, SeatType: "STANDARD", Status: model.SeatBooked},
	}, nil)

	rec := do(e, http.MethodGet, "/api/seats?scheduleId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`[{"id":1,"roomId":10,"rowLabel":"A","seatNumber":1,"seatType":"STANDARD","status":"BOOKED"}]`,
		rec.Body.String())

	rec = do(e, http.MethodGet, "/api/seats?scheduleId=9", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_schedule")

	for _, q := range []string{"", "?scheduleId=", "?scheduleId=x", "?scheduleId=-1", "?scheduleId=0"} {
		rec = do(e, http.MethodGet, "/api/seats"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSeats_StoreFailure(t *testing.T) {
	e, showtimes, _ := scheduleSetup(t)
	showtimes.On("ShowtimeByID", mock.Anything, uint64(1)).Return(model.Showtime{}, false, assert.AnError)

	rec := do(e, http.MethodGet, "/api/seats?scheduleId=1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"internal server error"}`, rec.Body.String())
}
