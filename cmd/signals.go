package cmd

import (
	"os"
	"os/signal"
	"syscall"
)

// setupSignals relays every interrupt, not just the first: a sync treats the first one as "skip this source" and
// a repeat as "cancel the run".
func setupSignals() <-chan os.Signal {
	c := make(chan os.Signal, 2)

	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	return c
}
