package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const Stacktrace = "stacktrace"

// Unexported but considered part of the stable interface of pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Unexported but considered part of the stable interface of pkg/errors.
type causer interface {
	Cause() error
}

// WithStacktrace returns a new logrus.Entry obtained by adding error information and, when debug logging is
// enabled and a stack is available, a stack trace as fields to the provided logrus.Entry.
func WithStacktrace(logger *logrus.Entry, err error) *logrus.Entry {
	logger = logger.WithError(err)
	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		if stack := ExtractStack(err); stack != nil {
			logger = logger.WithField(Stacktrace, stack)
		}
	}
	return logger
}

// ExtractStack walks down the chain of causes and returns the first errors.StackTrace found, or nil.
func ExtractStack(err error) errors.StackTrace {
	for err != nil {
		if stackErr, ok := err.(stackTracer); ok {
			return stackErr.StackTrace()
		}
		causeErr, ok := err.(causer)
		if !ok {
			return nil
		}
		err = causeErr.Cause()
	}
	return nil
}
