package serializer

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// space is the set of characters skipped in front of a numeric argument
const space = " \t\n\v\f\r"

// ParseFloat parses a score argument. Leading white space is skipped, the
// rest of the token must be a number. Out of range values become ±Inf, NaN
// is rejected since it has no place in the score order.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimLeft(s, space), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseInt parses a base 10 integer argument. Leading white space is
// skipped, the rest of the token must match. Out of range values saturate
// at the int64 limits.
func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimLeft(s, space), 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return i, true
}
