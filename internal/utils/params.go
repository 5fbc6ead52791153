package utils

import (
	"errors"
	"strconv"
)

// ErrBadID is returned by ParseID for anything but a positive decimal
// integer that fits in a signed 64-bit column.
var ErrBadID = errors.New("id must be a positive integer")

// ParseID parses an id taken from a query string or path. Blank values,
// signs, whitespace, fractions and overflow are all rejected.
func ParseID(raw string) (uint64, error) {
	if raw == "" || len(raw) > 19 {
		return 0, ErrBadID
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, ErrBadID
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrBadID
	}
	return uint64(n), nil
}
