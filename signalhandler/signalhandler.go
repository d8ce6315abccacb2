package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func SetupHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}
		<-sigChan
		os.Exit(1)
	}()

	return ctx, cancel
}

// GetOptimalProcs returns the number of worker goroutines for image probing
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Leave headroom for the OpenCV decoder threads
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
