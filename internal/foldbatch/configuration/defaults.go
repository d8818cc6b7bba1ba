package configuration

import (
	_ "embed"

	"github.com/armadaproject/foldbatch/internal/common"
)

//go:embed config.yaml
var defaultConfig []byte

// Load reads the defaults, merges each of the given files over them and applies FOLDBATCH_* environment overrides.
func Load(files []string) (FoldbatchConfig, error) {
	var config FoldbatchConfig
	if _, err := common.LoadConfig(&config, defaultConfig, files); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config.Resolve()
}
