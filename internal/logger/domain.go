package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// LogBillCreated records a confirmed bill.
func (l *Logger) LogBillCreated(ctx context.Context, billID, userID, showtimeID uint64, seats []uint64, attempts int) {
	l.InfoContext(ctx, "bill created",
		slog.Uint64("bill_id", billID),
		slog.Uint64("user_id", userID),
		slog.Uint64("showtime_id", showtimeID),
		slog.Any("seat_ids", seats),
		slog.Int("attempts", attempts),
	)
}

// LogClaimRejected records a booking request that ended in REJECTED.
func (l *Logger) LogClaimRejected(ctx context.Context, userID, showtimeID uint64, stage string, err error) {
	l.WarnContext(ctx, "booking rejected",
		slog.Uint64("user_id", userID),
		slog.Uint64("showtime_id", showtimeID),
		slog.String("stage", stage),
		slog.String("reason", err.Error()),
	)
}

// RequestLogger returns an echo middleware that writes one access record per
// request through l.
func (l *Logger) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency.Round(time.Microsecond)),
				slog.String("ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				level = slog.LevelError
			}
			l.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	})
}
