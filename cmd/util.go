package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kevensen/frtsdk/internal/bus"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/internal/ui"
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store"
)

func stderrPrintLnf(message string, args ...interface{}) error {
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	_, err := fmt.Fprintf(os.Stderr, message, args...)
	return err
}

func openStore(ctx context.Context) (store.Store, error) {
	s, err := resource.OpenStore(ctx, appConfig.DB.Location, appConfig.Fetch.ToResourceConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to open the store at %q: %w", appConfig.DB.Location, err)
	}
	return s, nil
}

// work is the body of a command. The returned report is shown once the command finishes.
type work func(ctx context.Context, s store.Store) (string, error)

// run opens the store and runs the given work in the background while the event loop renders progress. On a signal
// the interrupt callback is tried first; when it declines (or none is given) the whole command is cancelled.
func run(fn work, interrupt func() bool) error {
	ctx, cancel := context.WithCancel(context.Background())

	s, err := openStore(ctx)
	if err != nil {
		cancel()
		return err
	}

	errs := make(chan error)
	go func() {
		defer close(errs)
		report, err := fn(ctx, s)
		if err != nil {
			errs <- err
			return
		}
		bus.Report(report)
	}()

	onSignal := func() bool {
		if interrupt != nil && interrupt() {
			log.Warn("interrupted; signal again to cancel the whole run")
			return true
		}
		cancel()
		return false
	}

	return eventLoop(
		errs,
		setupSignals(),
		eventSubscription,
		onSignal,
		func() {
			cancel()
			log.CloseAndLogError(s, appConfig.DB.Location)
		},
		ui.Select(os.Stdout),
	)
}
