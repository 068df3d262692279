package ui

import (
	"io"

	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/event"
)

type loggerUI struct {
	unsubscribe  func() error
	reportOutput io.Writer
}

// NewLoggerUI writes all events to the common application logger and writes the final report to the given writer.
func NewLoggerUI(reportWriter io.Writer) UI {
	return &loggerUI{
		reportOutput: reportWriter,
	}
}

func (l *loggerUI) Setup(unsubscribe func() error) error {
	l.unsubscribe = unsubscribe
	return nil
}

func (l loggerUI) Handle(e partybus.Event) error {
	var err error
	switch e.Type {
	case event.SyncStarted:
		err = handleSyncStarted(e)
	case event.SourceSyncStarted:
		err = handleSourceSyncStarted(e)
	case event.SourceSyncFinished:
		err = handleSourceSyncFinished(e)
	case event.FeedDiffStarted:
		err = handleFeedDiffStarted(e)
	case event.MessageExtractionStarted:
		err = handleMessageExtractionStarted(e)
	case event.AggregationStarted:
		err = handleAggregationStarted(e)
	case event.DownloadStarted:
		err = handleDownloadStarted(e)
	case event.NonRootCommandFinished:
		if err := handleNonRootCommandFinished(e, l.reportOutput); err != nil {
			log.Warnf("unable to show command finished event: %+v", err)
		}
		// this is the last expected event, stop listening to events
		return l.unsubscribe()
	default:
		return nil
	}

	if err != nil {
		log.Warnf("unable to show %s event: %+v", e.Type, err)
	}
	return nil
}

func (l loggerUI) Teardown(_ bool) error {
	return nil
}
