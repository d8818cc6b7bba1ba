package cmd

import (
	"time"

	"github.com/spf13/pflag"

	commonconfig "github.com/armadaproject/foldbatch/internal/common/config"
)

// durationValue is a duration flag that also accepts SLURM wall-time notation, e.g. 2-23:45:00.
type durationValue time.Duration

var _ pflag.Value = (*durationValue)(nil)

func newDurationValue(p *time.Duration) *durationValue {
	return (*durationValue)(p)
}

func (d *durationValue) Set(s string) error {
	v, err := commonconfig.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}

func (d *durationValue) String() string {
	return time.Duration(*d).String()
}

func (d *durationValue) Type() string {
	return "duration"
}
