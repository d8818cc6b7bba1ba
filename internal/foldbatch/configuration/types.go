package configuration

import (
	"time"

	"github.com/armadaproject/foldbatch/internal/predictor"
	"github.com/armadaproject/foldbatch/internal/slurm"
)

type FoldbatchConfig struct {
	Tool    predictor.Config
	Batch   BatchConfig
	Slurm   slurm.Config
	Metrics MetricsConfig
}

type BatchConfig struct {
	// InputDir holds one input file per job.
	InputDir string `validate:"required"`
	// OutputDir holds one directory per job, containing the job's markers and the tool's output.
	OutputDir string `validate:"required"`
	// Budget is the wall-clock time a single run may spend. Zero means unlimited; submitted jobs override it with the
	// allocation's time less the safety margin.
	Budget     time.Duration `validate:"gte=0"`
	JobTimeout time.Duration `validate:"gte=0"`
	// MinJobTime is the least remaining budget worth starting another job with.
	MinJobTime time.Duration `validate:"gte=0"`
}

type MetricsConfig struct {
	// TextfilePath is where run writes its metrics in the Prometheus text format, for the node exporter's textfile
	// collector. Empty disables it.
	TextfilePath string
}
