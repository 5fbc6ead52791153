// Package repository holds the MySQL data access code. Repositories bind to
// a *sql.DB; methods ending in Tx participate in a caller's transaction.
// The sentinel values below let higher layers tell failure scenarios apart
// without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-booking/internal/booking"
)

// ErrUsernameExists is returned by UserRepo.Create for a taken username.
var ErrUsernameExists = errors.New("username already exists")

// ErrBillNotFound is returned when a bill does not exist for the caller.
var ErrBillNotFound = errors.New("bill not found")

// ErrTokenInvalid is returned for an unknown, revoked or expired refresh
// token.
var ErrTokenInvalid = errors.New("refresh token invalid")

// MySQL server error numbers the booking store cares about.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool { return mysqlNumber(err) == errDupEntry }

// classifyWrite maps errors raised inside a claim transaction. Deadlocks,
// lock wait timeouts and unique violations mean another claim won the race,
// which the coordinator treats as booking.ErrWriteConflict.
func classifyWrite(err error) error {
	switch mysqlNumber(err) {
	case errDupEntry, errLockWaitTimeout, errDeadlock:
		return errors.Join(booking.ErrWriteConflict, err)
	}
	return err
}
