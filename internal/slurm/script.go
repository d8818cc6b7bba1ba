package slurm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

// Config describes the allocation requested for a batch and how it is submitted.
type Config struct {
	JobName     string `validate:"required"`
	Account     string
	Partition   string
	QOS         string
	Time        time.Duration `validate:"required,gt=0"`
	Nodes       int           `validate:"gte=0"`
	NTasks      int           `validate:"gte=0"`
	CPUsPerTask int           `validate:"gte=0"`
	Memory      string
	Gres        string
	MailUser    string
	MailType    string
	// Output is the sbatch --output pattern for the job's log.
	Output string
	// Modules are loaded with "module load" before the runner starts.
	Modules []string
	// Setup lines run in the job script before the runner, e.g. exports needed by the tool.
	Setup []string
	// SafetyMargin is kept back from Time so that the runner stops cleanly before SLURM kills it.
	SafetyMargin time.Duration `validate:"gte=0"`
	// Command is the sbatch executable.
	Command       string
	Attempts      uint          `validate:"gte=1"`
	RetryDelay    time.Duration `validate:"gte=0"`
	SubmitTimeout time.Duration `validate:"gte=0"`
}

// Budget returns the wall-clock budget for the runner inside an allocation of the configured time.
func (c Config) Budget() (time.Duration, error) {
	budget := c.Time - c.SafetyMargin
	if budget <= 0 {
		return 0, errors.Errorf("safety margin %s leaves no time in an allocation of %s", c.SafetyMargin, FormatDuration(c.Time))
	}
	return budget, nil
}

// ScriptParams is what a submission script is rendered from.
type ScriptParams struct {
	Config
	// RunCommand is the argv that runs the batch inside the allocation.
	RunCommand []string
	WorkDir    string
}

const scriptTemplate = `#!/bin/bash
#SBATCH --job-name={{ .JobName }}
{{- with .Account }}
#SBATCH --account={{ . }}
{{- end }}
{{- with .Partition }}
#SBATCH --partition={{ . }}
{{- end }}
{{- with .QOS }}
#SBATCH --qos={{ . }}
{{- end }}
#SBATCH --time={{ formatDuration .Time }}
{{- with .Nodes }}
#SBATCH --nodes={{ . }}
{{- end }}
{{- with .NTasks }}
#SBATCH --ntasks={{ . }}
{{- end }}
{{- with .CPUsPerTask }}
#SBATCH --cpus-per-task={{ . }}
{{- end }}
{{- with .Memory }}
#SBATCH --mem={{ . }}
{{- end }}
{{- with .Gres }}
#SBATCH --gres={{ . }}
{{- end }}
{{- with .Output }}
#SBATCH --output={{ . }}
{{- end }}
{{- with .MailUser }}
#SBATCH --mail-user={{ . }}
{{- end }}
{{- with .MailType }}
#SBATCH --mail-type={{ . }}
{{- end }}

set -euo pipefail
{{- range .Modules }}
module load {{ . }}
{{- end }}
{{- range .Setup }}
{{ . }}
{{- end }}
{{- with .WorkDir }}
cd {{ shellQuote . }}
{{- end }}

exec {{ shellJoin .RunCommand }}
`

var script = template.Must(template.New("sbatch").Funcs(sprig.TxtFuncMap()).Funcs(template.FuncMap{
	"formatDuration": FormatDuration,
	"shellJoin":      shellJoin,
	"shellQuote":     shellQuote,
}).Parse(scriptTemplate))

// RenderScript renders the sbatch script for params.
func RenderScript(params ScriptParams) (string, error) {
	if len(params.RunCommand) == 0 {
		return "", errors.New("no run command given")
	}
	var buf bytes.Buffer
	if err := script.Execute(&buf, params); err != nil {
		return "", errors.Wrap(err, "error rendering sbatch script")
	}
	return buf.String(), nil
}

// FormatDuration formats d as a SLURM time limit, D-HH:MM:SS, dropping the day part when it is zero. Fractions of a
// second are rounded up so that a limit is never shortened.
func FormatDuration(d time.Duration) string {
	seconds := int64((d + time.Second - 1) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	seconds %= 60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// shellJoin quotes args for a POSIX shell where needed.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@%+,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
