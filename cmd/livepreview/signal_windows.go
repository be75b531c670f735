//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals stop serve and watch. Windows only delivers os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns a context cancelled on Ctrl+C.
// Call stop() to release resources.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
