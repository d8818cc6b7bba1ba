package configuration

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/foldbatch/internal/common/config"
	"github.com/armadaproject/foldbatch/internal/predictor"
)

// Validate checks the field constraints of config, then the constraints between fields.
func (c FoldbatchConfig) Validate() error {
	if err := commonconfig.ValidationErrors(validator.New().Struct(c)); err != nil {
		return err
	}
	var result *multierror.Error
	profile, err := predictor.ProfileFor(c.Tool.Kind)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if c.Batch.Budget > 0 && c.Batch.MinJobTime > c.Batch.Budget {
		result = multierror.Append(result, errors.Errorf(
			"batch.minJobTime %s exceeds batch.budget %s; no job would ever start", c.Batch.MinJobTime, c.Batch.Budget))
	}
	pattern := c.Tool.InputPattern
	if pattern == "" {
		pattern = profile.InputPattern
	}
	if filepath.Clean(c.Batch.InputDir) == filepath.Clean(c.Batch.OutputDir) && !nested(pattern) {
		result = multierror.Append(result, errors.Errorf(
			"batch.inputDir and batch.outputDir are both %s, which needs an input pattern matching <name>/<file> such as **/*.fasta",
			c.Batch.InputDir))
	}
	if _, err := c.Slurm.Budget(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// nested reports whether pattern matches inputs in subdirectories, as in the <name>/<name>.fasta layout where each
// job's markers and results sit next to its input.
func nested(pattern string) bool {
	return strings.Contains(filepath.ToSlash(pattern), "/")
}

// Resolve returns a copy of config with the tool's defaults applied and every path expanded.
func (c FoldbatchConfig) Resolve() (FoldbatchConfig, error) {
	tool, err := c.Tool.WithDefaults()
	if err != nil {
		return c, err
	}
	c.Tool = tool
	for _, path := range []*string{&c.Batch.InputDir, &c.Batch.OutputDir, &c.Metrics.TextfilePath} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return c, errors.Wrapf(err, "error expanding %s", *path)
		}
		*path = expanded
	}
	return c, nil
}
