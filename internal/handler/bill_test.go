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

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/booking/memstore"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type MockBills struct{ mock.Mock }

func (m *MockBills) GetForUser(ctx context.Context, billID, userID uint64) (*model.Bill, error) {
	args := m.Called(ctx, billID, userID)
	b, _ := args.Get(0).(*model.Bill)
	return b, args.Error(1)
}

func (m *MockBills) ListTickets(ctx context.Context, userID uint64) ([]repository.Ticket, error) {
	args := m.Called(ctx, userID)
	t, _ := args.Get(0).([]repository.Ticket)
	return t, args.Error(1)
}

func bookingService() *booking.Service {
	s := memstore.New()
	s.AddUser(model.User{ID: 7, Username: "ann@example.com"})
	s.AddUser(model.User{ID: 8, Username: "bob@example.com"})
	for i := uint64(1); i <= 4; i++ {
		s.AddSeats(model.Seat{ID: i, RoomID: 10, RowLabel: "A", SeatNumber: uint32(i)})
	}
	s.AddShowtime(model.Showtime{
		ID: 1, MovieID: 4, RoomID: 10, BranchID: 2,
		StartsAt: now.Add(2 * time.Hour), EndsAt: now.Add(4 * time.Hour),
	}, 1, 2, 3, 4)

	v := booking.NewValidator(s, s, booking.WithValidatorClock(clock))
	c := booking.NewCoordinator(s, booking.NewBillFactory(clock))
	return booking.NewService(v, c)
}

func billSetup(t *testing.T, userID uint64) (*echo.Echo, *MockBills) {
	t.Helper()
	bills := new(MockBills)
	h := NewBillHandler(bookingService(), bills, nil)
	e := newEcho()
	e.POST("/api/bills/create-new-bill", h.Create, as(userID))
	e.GET("/api/tickets", h.Tickets, as(userID))
	e.GET("/api/bills/:id/qrcode", h.QRCode, as(userID))
	t.Cleanup(func() { bills.AssertExpectations(t) })
	return e, bills
}

func TestCreateBill(t *testing.T) {
	e, _ := billSetup(t, 7)

	rec := do(e, http.MethodPost, "/api/bills/create-new-bill", `{"userId":7,"scheduleId":1,"listSeatIds":[2,1]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out billResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotZero(t, out.ID)
	assert.NotEmpty(t, out.Code)
	assert.Equal(t, uint64(7), out.UserID)
	assert.Equal(t, uint64(1), out.ScheduleID)
	assert.Equal(t, []uint64{2, 1}, out.SeatIDs)
	assert.Equal(t, "CONFIRMED", out.Status)

	rec = do(e, http.MethodPost, "/api/bills/create-new-bill", `{"userId":7,"scheduleId":1,"listSeatIds":[3,2]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"seat_conflict"`)
}

func TestCreateBill_Rejections(t *testing.T) {
	e, _ := billSetup(t, 7)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"string user id", `{"userId":"7","scheduleId":1,"listSeatIds":[1]}`, http.StatusBadRequest},
		{"string schedule id", `{"userId":7,"scheduleId":"1","listSeatIds":[1]}`, http.StatusBadRequest},
		{"seat ids not a list", `{"userId":7,"scheduleId":1,"listSeatIds":1}`, http.StatusBadRequest},
		{"fractional seat id", `{"userId":7,"scheduleId":1,"listSeatIds":[1.5]}`, http.StatusBadRequest},
		{"malformed", `{"userId":7,`, http.StatusBadRequest},
		{"missing user", `{"scheduleId":1,"listSeatIds":[1]}`, http.StatusBadRequest},
		{"missing seats", `{"userId":7,"scheduleId":1}`, http.StatusBadRequest},
		{"empty seats", `{"userId":7,"scheduleId":1,"listSeatIds":[]}`, http.StatusBadRequest},
		{"duplicate seats", `{"userId":7,"scheduleId":1,"listSeatIds":[1,1]}`, http.StatusBadRequest},
		{"negative seat", `{"userId":7,"scheduleId":1,"listSeatIds":[-1]}`, http.StatusBadRequest},
		{"zero schedule", `{"userId":7,"scheduleId":0,"listSeatIds":[1]}`, http.StatusBadRequest},
		{"someone else", `{"userId":8,"scheduleId":1,"listSeatIds":[1]}`, http.StatusUnauthorized},
		{"unknown schedule", `{"userId":7,"scheduleId":99,"listSeatIds":[1]}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/bills/create-new-bill", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateBill_RequiresPrincipal(t *testing.T) {
	h := NewBillHandler(bookingService(), new(MockBills), nil)
	e := newEcho()
	e.POST("/api/bills", h.Create)

	rec := do(e, http.MethodPost, "/api/bills", `{"userId":7,"scheduleId":1,"listSeatIds":[1]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTickets(t *testing.T) {
	e, bills := billSetup(t, 7)
	bills.On("ListTickets", mock.Anything, uint64(7)).Return(nil, nil).Once()

	rec := do(e, http.MethodGet, "/api/tickets?userId=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	bills.On("ListTickets", mock.Anything, uint64(7)).Return([]repository.Ticket{{BillID: 3, Code: "c3"}}, nil).Once()
	rec = do(e, http.MethodGet, "/api/tickets?userId=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"billId":3`)
}

func TestQRCode(t *testing.T) {
	e, bills := billSetup(t, 7)
	bills.On("GetForUser", mock.Anything, uint64(3), uint64(7)).Return(&model.Bill{ID: 3, Code: "c3"}, nil)
	bills.On("GetForUser", mock.Anything, uint64(4), uint64(7)).Return(nil, repository.ErrBillNotFound)

	rec := do(e, http.MethodGet, "/api/bills/3/qrcode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])

	rec = do(e, http.MethodGet, "/api/bills/4/qrcode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/bills/x/qrcode", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
