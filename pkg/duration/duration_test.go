package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		token    string
		expected time.Duration
	}{
		{"1m", time.Minute},
		{"30m", 30 * time.Minute},
		{"1h", time.Hour},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"0m", 0},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			parsed, err := Parse(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

func TestParse_MillisecondEquivalence(t *testing.T) {
	tests := []struct {
		token  string
		millis int64
	}{
		{"1m", 60000},
		{"1h", 3600000},
		{"1d", 86400000},
		{"15m", 15 * 60000},
		{"3h", 3 * 3600000},
		{"2d", 2 * 86400000},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			parsed, err := Parse(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.millis, parsed.Milliseconds())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tokens := []string{
		"",
		"m",
		"10",
		"m10",
		"h2",
		"10s",
		"10w",
		"1.5h",
		"-1h",
		" 1h",
		"1h ",
		"1hh",
		"one-hour",
	}

	for _, token := range tokens {
		t.Run("invalid_"+token, func(t *testing.T) {
			_, err := Parse(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDuration)
		})
	}
}
