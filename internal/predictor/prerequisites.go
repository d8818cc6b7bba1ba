package predictor

import (
	"os"
	"os/exec"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/armadaproject/foldbatch/internal/batch"
)

// CheckPrerequisites verifies that the tool can be launched at all: the paths it needs are configured and exist, its
// command renders and its executable resolves. It returns a *batch.MissingPrerequisiteError for the first problem
// found.
func (p *ExecPredictor) CheckPrerequisites() error {
	checks := []struct {
		prerequisite string
		field        string
		key          string
		path         string
		dir          bool
	}{
		{"model parameters", "ModelDir", "tool.modelDir", p.config.ModelDir, true},
		{"database directory", "DatabaseDir", "tool.databaseDir", p.config.DatabaseDir, true},
		{"container image", "Image", "tool.image", p.config.Image, false},
		{"scratch directory", "ScratchDir", "tool.scratchDir", p.config.ScratchDir, true},
	}
	for _, check := range checks {
		if check.path == "" {
			if p.requires(check.field) {
				return &batch.MissingPrerequisiteError{
					Prerequisite: check.prerequisite,
					Message:      check.key + " is not set",
				}
			}
			continue
		}
		info, err := os.Stat(check.path)
		if err != nil {
			return &batch.MissingPrerequisiteError{Prerequisite: check.prerequisite, Path: check.path, Message: err.Error()}
		}
		if check.dir && !info.IsDir() {
			return &batch.MissingPrerequisiteError{Prerequisite: check.prerequisite, Path: check.path, Message: "not a directory"}
		}
	}

	args, err := p.render(p.sampleInvocation())
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return &batch.MissingPrerequisiteError{
			Prerequisite: "executable",
			Path:         args[0],
			Message:      "not found on PATH; load the module that provides it",
		}
	}
	return nil
}

// requires reports whether the Config path named field must be set: the tool always needs it, or the command uses it.
func (p *ExecPredictor) requires(field string) bool {
	if profile, err := ProfileFor(p.config.Kind); err == nil && slices.Contains(profile.Requires, field) {
		return true
	}
	for _, arg := range p.config.Command {
		if strings.Contains(arg, "."+field) {
			return true
		}
	}
	return false
}

// sampleInvocation is what the command is rendered with before any job runs.
func (p *ExecPredictor) sampleInvocation() invocation {
	return invocation{
		Name:        "job",
		Input:       "job",
		InputFile:   "job",
		InputDir:    ".",
		OutputDir:   ".",
		ModelDir:    p.config.ModelDir,
		DatabaseDir: p.config.DatabaseDir,
		Image:       p.config.Image,
	}
}
