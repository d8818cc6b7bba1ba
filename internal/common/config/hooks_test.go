package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected time.Duration
	}{
		"empty":           {"", 0},
		"go duration":     {"71h30m", 71*time.Hour + 30*time.Minute},
		"minutes":         {"90", 90 * time.Minute},
		"minutes seconds": {"10:30", 10*time.Minute + 30*time.Second},
		"hours":           {"72:00:00", 72 * time.Hour},
		"days hours":      {"1-12", 36 * time.Hour},
		"days hours mins": {"2-01:30", 49*time.Hour + 30*time.Minute},
		"days full":       {"3-00:00:30", 72*time.Hour + 30*time.Second},
		"padded with ws":  {" 04:00:00 ", 4 * time.Hour},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := ParseDuration(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, input := range []string{"abc", "1:2:3:4", "x-01", "01:-5", "1-a"} {
		_, err := ParseDuration(input)
		assert.Error(t, err, input)
	}
}
