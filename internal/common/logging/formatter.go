package logging

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter prints only the message. Warnings and errors keep their level as a prefix so they stand
// out in a terminal without the noise of timestamps.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	switch entry.Level {
	case log.WarnLevel, log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return []byte(fmt.Sprintf("%s: %s\n", entry.Level, entry.Message)), nil
	default:
		return []byte(fmt.Sprintf("%s\n", entry.Message)), nil
	}
}
