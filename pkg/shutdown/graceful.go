package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals returns a context cancelled on the first SIGINT or SIGTERM.
// A second signal exits the process immediately.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return withSignals(ctx, func() { os.Exit(1) }, syscall.SIGINT, syscall.SIGTERM)
}

func withSignals(ctx context.Context, force func(), sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
			return
		}
		<-ch
		force()
	}()

	return ctx, cancel
}
