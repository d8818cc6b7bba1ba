package common

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/foldbatch/internal/common/config"
	"github.com/armadaproject/foldbatch/internal/common/logging"
)

const envPrefix = "FOLDBATCH"

// LoadConfig populates config from the embedded defaults, then each of the override files in order,
// then FOLDBATCH_* environment variables. Nested keys map to environment variables by replacing
// "." with "_", e.g. FOLDBATCH_BATCH_BUDGET.
func LoadConfig(config any, defaults []byte, overrideConfigs []string, hooks ...viper.DecoderConfigOption) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, errors.Wrap(err, "error reading default config")
	}

	for _, overrideConfig := range overrideConfigs {
		if overrideConfig == "" {
			continue
		}
		v.SetConfigFile(overrideConfig)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config from %s", overrideConfig)
		}
		log.Debugf("Merged config from %s", overrideConfig)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if len(hooks) == 0 {
		hooks = commonconfig.CustomHooks
	}
	if err := v.Unmarshal(config, hooks...); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling config")
	}
	return v, nil
}

// ConfigureCommandLineLogging sets up logrus for interactive commands: bare messages on stdout.
func ConfigureCommandLineLogging() {
	commandLineFormatter := new(logging.CommandLineFormatter)
	log.SetFormatter(commandLineFormatter)
	log.SetOutput(os.Stdout)
}

// ConfigureLogging sets up logrus for long-running batch invocations, where every line needs a timestamp
// so it can be correlated with the scheduler's accounting.
func ConfigureLogging() {
	log.SetLevel(readEnvironmentLogLevel())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	log.SetOutput(os.Stdout)
}

func readEnvironmentLogLevel() log.Level {
	level, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		logLevel, err := log.ParseLevel(level)
		if err == nil {
			return logLevel
		}
	}
	return log.InfoLevel
}
