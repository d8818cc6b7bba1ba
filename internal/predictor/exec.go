package predictor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/common/util"
)

// invocation is the data the command templates are rendered with.
type invocation struct {
	Name string
	// Input is the input file as the tool sees it: the staged copy when staging is enabled.
	Input     string
	InputFile string
	InputDir  string
	// OutputDir is where the tool writes: the scratch output directory when staging is enabled.
	OutputDir   string
	ModelDir    string
	DatabaseDir string
	Image       string
}

// ExecPredictor runs the prediction tool as a child process, one job at a time.
type ExecPredictor struct {
	config  Config
	command []*template.Template
	clock   clock.WithTicker
	fs      afero.Fs
}

var _ batch.Predictor = &ExecPredictor{}

// NewExecPredictor parses the command templates of config. Templates are executed for the first time by
// CheckPrerequisites.
func NewExecPredictor(config Config, clock clock.WithTicker) (*ExecPredictor, error) {
	config, err := config.WithDefaults()
	if err != nil {
		return nil, err
	}
	command := make([]*template.Template, len(config.Command))
	for i, arg := range config.Command {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Funcs(sprig.TxtFuncMap()).Parse(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing command argument %q", arg)
		}
		command[i] = tmpl
	}
	p := &ExecPredictor{
		config:  config,
		command: command,
		clock:   clock,
		fs:      afero.NewOsFs(),
	}
	return p, nil
}

func (p *ExecPredictor) Config() Config {
	return p.config
}

// Predict runs the tool for job and blocks until it exits or ctx is done, in which case the tool's whole process group
// is killed.
func (p *ExecPredictor) Predict(ctx *armadacontext.Context, job batch.Job) (*batch.Result, error) {
	if err := p.fs.MkdirAll(job.OutputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating output directory %s", job.OutputDir)
	}
	ws, err := p.stage(job)
	if err != nil {
		return nil, err
	}
	defer ws.remove(ctx, p.fs)

	args, err := p.render(ws.invocation)
	if err != nil {
		return nil, err
	}

	logPath := filepath.Join(job.OutputDir, p.config.MarkerPrefix+".log")
	logFile, err := p.fs.Create(logPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating log %s", logPath)
	}
	defer util.CloseResource(logPath, logFile)
	fmt.Fprintf(logFile, "# %s\n", strings.Join(args, " "))

	tail := newTailBuffer(p.config.OutputTailBytes)
	output := io.MultiWriter(logFile, tail)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = job.OutputDir
	cmd.Env = p.environ()
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = p.config.KillGracePeriod
	killProcessGroupOnCancel(cmd)

	ctx.Log.Debugf("Running %s", strings.Join(args, " "))
	started := p.clock.Now()
	var runErr error
	g, groupCtx := armadacontext.ErrGroup(ctx)
	exited := make(chan struct{})
	g.Go(func() error {
		defer close(exited)
		runErr = cmd.Run()
		return nil
	})
	if p.config.ProgressInterval > 0 {
		g.Go(func() error {
			p.reportProgress(armadacontext.WithLogField(groupCtx, "tool", filepath.Base(args[0])), started, exited)
			return nil
		})
	}
	_ = g.Wait()
	result := &batch.Result{
		ExitCode: exitCode(cmd),
		Duration: p.clock.Since(started),
		Output:   tail.String(),
	}

	switch {
	case runErr == nil:
		if ws.root != "" {
			if err := copyTree(p.fs, ws.invocation.OutputDir, job.OutputDir); err != nil {
				return result, errors.Wrapf(err, "error copying results of %s into %s", job.Name, job.OutputDir)
			}
		}
		return result, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return result, &batch.JobTimeoutError{Timeout: allotted(ctx, started), Output: result.Output}
	case ctx.Err() != nil:
		return result, errors.Wrap(ctx.Err(), "prediction interrupted")
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return result, &batch.JobExecutionError{ExitCode: exitErr.ExitCode(), Output: result.Output}
	}
	return result, errors.Wrapf(runErr, "error running %s", args[0])
}

// reportProgress logs how long the tool has been running every ProgressInterval until it exits.
func (p *ExecPredictor) reportProgress(ctx *armadacontext.Context, started time.Time, exited <-chan struct{}) {
	ticker := p.clock.NewTicker(p.config.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-exited:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			ctx.Log.Infof("Prediction still running after %s", p.clock.Since(started).Round(time.Second))
		}
	}
}

func (p *ExecPredictor) render(inv invocation) ([]string, error) {
	args := make([]string, 0, len(p.command))
	var buf bytes.Buffer
	for _, tmpl := range p.command {
		buf.Reset()
		if err := tmpl.Execute(&buf, inv); err != nil {
			return nil, errors.Wrapf(err, "error rendering command argument %s", tmpl.Name())
		}
		args = append(args, buf.String())
	}
	if len(args) == 0 || args[0] == "" {
		return nil, errors.New("command must name an executable")
	}
	return args, nil
}

// environ upper-cases the configured names, which lose their case when read from a config file.
func (p *ExecPredictor) environ() []string {
	env := os.Environ()
	keys := maps.Keys(p.config.Env)
	slices.Sort(keys)
	for _, key := range keys {
		env = append(env, strings.ToUpper(key)+"="+p.config.Env[key])
	}
	return env
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// allotted returns how long the job was given before ctx expired.
func allotted(ctx context.Context, started time.Time) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return deadline.Sub(started).Round(time.Millisecond)
}
