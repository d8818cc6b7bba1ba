package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected Status
		err      bool
	}{
		"name":           {input: "Done", expected: Done},
		"lower case":     {input: "timedout", expected: TimedOut},
		"marker suffix":  {input: "timeout", expected: TimedOut},
		"running suffix": {input: "running", expected: Running},
		"ready":          {input: "READY", expected: Ready},
		"unknown":        {input: "finished", err: true},
		"empty":          {input: "", err: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			status, err := ParseStatus(tc.input)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, status := range AllStatuses() {
		text, err := status.MarshalText()
		require.NoError(t, err)
		var parsed Status
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, status, parsed)
	}
}

func TestStatus_Classification(t *testing.T) {
	assert.False(t, Ready.IsTerminal())
	assert.False(t, Running.IsTerminal())
	assert.True(t, Done.IsTerminal())
	assert.True(t, Error.IsTerminal())
	assert.True(t, TimedOut.IsTerminal())

	assert.False(t, Done.IsFailure())
	assert.True(t, Error.IsFailure())
	assert.True(t, TimedOut.IsFailure())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestStatusSet(t *testing.T) {
	assert.Equal(t, "{Running}", StaleFilter.String())
	assert.Equal(t, "{Error, TimedOut}", FailedFilter.String())
	assert.Equal(t, "{Running, Error, TimedOut}", NotDoneFilter.String())
	assert.False(t, NotDoneFilter.Contains(Done))
	assert.True(t, FailedFilter.Contains(TimedOut))
}

func TestMarkerSuffixesCoverNonReadyStatuses(t *testing.T) {
	for _, status := range AllStatuses() {
		_, ok := markerSuffixes[status]
		assert.Equal(t, status != Ready, ok, status.String())
	}
	assert.Len(t, markerPrecedence, len(markerSuffixes))
}
