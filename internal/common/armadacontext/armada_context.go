package armadacontext

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Context is an extension of Go's context which also includes a logger. This allows us to pass round a contextual
// logger, e.g. one carrying the job name and attempt id, while retaining type-safety.
type Context struct {
	context.Context
	Log *logrus.Entry
}

// Background creates an empty context logging through the standard logrus logger, so that whatever formatter the
// command configured applies. It is analogous to context.Background()
func Background() *Context {
	return &Context{
		Context: context.Background(),
		Log:     logrus.NewEntry(logrus.StandardLogger()),
	}
}

// TODO creates an empty context with a default logger.  It is analogous to context.TODO()
func TODO() *Context {
	return &Context{
		Context: context.TODO(),
		Log:     logrus.NewEntry(logrus.StandardLogger()),
	}
}

// New returns a context that encapsulates both a go context and a logger
func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{
		Context: ctx,
		Log:     log,
	}
}

// WithCancel returns a copy of parent with a new Done channel. It is analogous to context.WithCancel()
func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return &Context{
		Context: c,
		Log:     parent.Log,
	}, cancel
}

// WithDeadline returns a copy of the parent context with the deadline adjusted to be no later than d.
// It is analogous to context.WithDeadline()
func WithDeadline(parent *Context, d time.Time) (*Context, context.CancelFunc) {
	c, cancel := context.WithDeadline(parent.Context, d)
	return &Context{
		Context: c,
		Log:     parent.Log,
	}, cancel
}

// WithTimeout returns WithDeadline(parent, time.Now().Add(timeout)). It is analogous to context.WithTimeout()
func WithTimeout(parent *Context, timeout time.Duration) (*Context, context.CancelFunc) {
	return WithDeadline(parent, time.Now().Add(timeout))
}

// WithLogField returns a copy of parent with the supplied key-value added to the logger
func WithLogField(parent *Context, key string, val interface{}) *Context {
	return &Context{
		Context: parent.Context,
		Log:     parent.Log.WithField(key, val),
	}
}

// WithLogFields returns a copy of parent with the supplied key-values added to the logger
func WithLogFields(parent *Context, fields logrus.Fields) *Context {
	return &Context{
		Context: parent.Context,
		Log:     parent.Log.WithFields(fields),
	}
}

// ErrGroup returns a new Error Group and an associated Context derived from ctx.
// It is analogous to errgroup.WithContext(ctx)
func ErrGroup(ctx *Context) (*errgroup.Group, *Context) {
	group, goctx := errgroup.WithContext(ctx)
	return group, &Context{
		Context: goctx,
		Log:     ctx.Log,
	}
}
