// Package duration parses the compact duration tokens used by wait actions.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDuration indicates a token that is not <integer><m|h|d>.
var ErrInvalidDuration = errors.New("invalid duration")

var tokenPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// Parse converts a token such as "30m", "2h" or "7d" into a time.Duration.
// Anything else fails with ErrInvalidDuration, including an empty string,
// a reversed unit/number order or an unknown unit letter.
func Parse(token string) (time.Duration, error) {
	match := tokenPattern.FindStringSubmatch(token)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	amount, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidDuration, token, err)
	}

	switch match[2] {
	case "m":
		return time.Duration(amount) * time.Minute, nil
	case "h":
		return time.Duration(amount) * time.Hour, nil
	case "d":
		return time.Duration(amount) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}
}
