package predictor

import (
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Config describes how to invoke the prediction tool. Fields left empty take the defaults of the tool's Profile.
type Config struct {
	Kind         Kind
	MarkerPrefix string
	InputPattern string
	StageInput   string
	Command      []string
	// Image is the container image, for tools run through apptainer.
	Image       string
	ModelDir    string
	DatabaseDir string
	// ScratchDir holds staged inputs and outputs. Empty means the system temporary directory.
	ScratchDir string
	// Env is added to the environment inherited by the tool.
	Env map[string]string
	// OutputTailBytes bounds how much of the tool's output is kept for error markers.
	OutputTailBytes int
	// KillGracePeriod bounds how long to wait for the tool's output to drain after it has been killed.
	KillGracePeriod time.Duration
	// ProgressInterval is how often a running prediction is logged. Zero disables it.
	ProgressInterval time.Duration `validate:"gte=0"`
}

const (
	defaultOutputTailBytes = 16 * 1024
	defaultKillGracePeriod = 10 * time.Second
)

// WithDefaults returns a copy of c with empty fields filled from the tool's profile and every path expanded.
func (c Config) WithDefaults() (Config, error) {
	profile, err := ProfileFor(c.Kind)
	if err != nil {
		return c, err
	}
	if c.MarkerPrefix == "" {
		c.MarkerPrefix = profile.MarkerPrefix
	}
	if c.InputPattern == "" {
		c.InputPattern = profile.InputPattern
	}
	if c.StageInput == "" {
		c.StageInput = profile.StageInput
	}
	if len(c.Command) == 0 {
		c.Command = profile.Command
	}
	if c.OutputTailBytes <= 0 {
		c.OutputTailBytes = defaultOutputTailBytes
	}
	if c.KillGracePeriod <= 0 {
		c.KillGracePeriod = defaultKillGracePeriod
	}
	for _, path := range []*string{&c.Image, &c.ModelDir, &c.DatabaseDir, &c.ScratchDir} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return c, errors.Wrapf(err, "error expanding %s", *path)
		}
		*path = expanded
	}
	return c, nil
}
