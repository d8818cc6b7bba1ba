package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		DurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)),
}

// DurationHookFunc decodes strings into time.Duration. Besides Go durations ("71h30m") it accepts the
// wall-time notation used by SLURM: "MM", "MM:SS", "HH:MM:SS", "D-HH", "D-HH:MM" and "D-HH:MM:SS".
func DurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return ParseDuration(data.(string))
	}
}

// ParseDuration parses either a Go duration or a SLURM wall-time string.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	days := 0
	rest := s
	hasDays := false
	if idx := strings.Index(s, "-"); idx >= 0 {
		n, err := strconv.Atoi(s[:idx])
		if err != nil || n < 0 {
			return 0, errors.Errorf("invalid duration %q", s)
		}
		days = n
		rest = s[idx+1:]
		hasDays = true
	}

	parts := strings.Split(rest, ":")
	if len(parts) > 3 {
		return 0, errors.Errorf("invalid duration %q", s)
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, errors.Errorf("invalid duration %q", s)
		}
		values[i] = n
	}

	var hours, minutes, seconds int
	switch {
	case hasDays && len(values) == 1:
		hours = values[0]
	case hasDays && len(values) == 2:
		hours, minutes = values[0], values[1]
	case len(values) == 1:
		minutes = values[0]
	case len(values) == 2 && !hasDays:
		minutes, seconds = values[0], values[1]
	default:
		hours, minutes, seconds = values[0], values[1], values[2]
	}
	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return d, nil
}
