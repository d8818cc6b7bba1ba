package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
)

// CreateContextWithShutdown returns a context that is cancelled when SIGINT or SIGTERM is received. SLURM sends SIGTERM
// when an allocation reaches its time limit.
func CreateContextWithShutdown() (*armadacontext.Context, context.CancelFunc) {
	ctx, cancel := armadacontext.WithCancel(armadacontext.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			ctx.Log.Warnf("Received %s, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
