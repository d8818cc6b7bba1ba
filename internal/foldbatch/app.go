package foldbatch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/foldbatch/configuration"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// In is read for confirmations. Defaults to standard in.
	In io.Reader
	// Clock measures the run budget. Tests substitute a fake clock.
	Clock clock.WithTicker
	// Executable is the path written into submission scripts to run foldbatch. Defaults to the running binary.
	Executable string
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct.
type Params struct {
	// ConfigFiles are merged over the defaults in order.
	ConfigFiles []string
	// Budget overrides batch.budget when non-zero.
	Budget time.Duration
	// CleanupStale clears Running markers before a run. Only safe when no other runner works on the batch.
	CleanupStale bool
	// Resubmit submits a follow-up allocation when a run stops with jobs still Ready.
	Resubmit bool
	// Yes skips confirmation prompts.
	Yes    bool
	DryRun bool
	// Output is the format of summarize: table, csv, json or yaml.
	Output string
	// FastaDir is where convert reads ColabFold inputs from.
	FastaDir  string
	Seeds     []int
	Overwrite bool
	// BaitFile and PreyFile are the FASTA files pair combines; PairDir is where the pairs are written.
	BaitFile string
	PreyFile string
	PairDir  string
}

// New instantiates an App with default parameters, including standard output and input and the real clock.
func New() *App {
	executable, err := os.Executable()
	if err != nil {
		executable = "foldbatch"
	}
	return &App{
		Params:     &Params{},
		Out:        os.Stdout,
		In:         os.Stdin,
		Clock:      clock.RealClock{},
		Executable: executable,
	}
}

func (a *App) loadConfig() (configuration.FoldbatchConfig, error) {
	config, err := configuration.Load(a.Params.ConfigFiles)
	if err != nil {
		return config, err
	}
	if a.Params.Budget > 0 {
		config.Batch.Budget = a.Params.Budget
	}
	return config, nil
}

func newBatch(config configuration.FoldbatchConfig) *batch.Batch {
	return batch.New(
		batch.NewDiscoverer(config.Batch.InputDir, config.Batch.OutputDir, config.Tool.InputPattern),
		batch.NewMarkerStore(config.Tool.MarkerPrefix),
	)
}

// confirm asks the user a yes/no question on Out and reads the answer from In. Anything but y or yes is a no.
func (a *App) confirm(question string) (bool, error) {
	if a.Params.Yes {
		return true, nil
	}
	fmt.Fprintf(a.Out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
