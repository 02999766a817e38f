package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies books, readers and loans. Values are always positive;
// zero means "not assigned yet".
type ID int64

// ParseID converts external input (path params, flags, CSV cells) into an ID.
// This is the only place where string identifiers are accepted.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidID, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidID, n)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the ID has not been assigned.
func (id ID) IsZero() bool {
	return id == 0
}
