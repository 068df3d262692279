package ui

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/event/parsers"
	"github.com/kevensen/frtsdk/redteam/store"
)

func handleSyncStarted(e partybus.Event) error {
	mon, err := parsers.ParseSyncStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("run", mon.RunID, "sources", mon.SourcesProcessed.Size()).Info("sync run started")
	return nil
}

func handleSourceSyncStarted(e partybus.Event) error {
	src, err := parsers.ParseSourceSyncStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("run", src.RunID, "id", src.SourceID, "type", src.Type).Infof("syncing %s", src.Location)
	return nil
}

func handleSourceSyncFinished(e partybus.Event) error {
	src, err := parsers.ParseSourceSyncFinished(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}

	fields := log.WithFields("run", src.RunID, "id", src.SourceID, "type", src.Type)
	label := statusLabel(store.SyncStatus(src.Status))
	switch store.SyncStatus(src.Status) {
	case store.Success:
		fields.Infof("%s %s", label, src.Location)
	case store.Failed:
		fields.Warnf("%s %s: %v", label, src.Location, src.Err)
	default:
		fields.Warnf("%s %s", label, src.Location)
	}
	return nil
}

func statusLabel(status store.SyncStatus) string {
	switch status {
	case store.Success:
		return color.Green.Sprint("synced")
	case store.Failed:
		return color.Red.Sprint("failed")
	default:
		return color.Yellow.Sprint("interrupted")
	}
}

func handleFeedDiffStarted(e partybus.Event) error {
	mon, err := parsers.ParseFeedDiffStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("records", mon.RecordsProcessed.Size()).Debug("diffing feed")
	return nil
}

func handleMessageExtractionStarted(e partybus.Event) error {
	mon, err := parsers.ParseMessageExtractionStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("messages", mon.MessagesProcessed.Size()).Debug("extracting advisory messages")
	return nil
}

func handleAggregationStarted(e partybus.Event) error {
	mon, err := parsers.ParseAggregationStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("messages", mon.MessagesProcessed.Size()).Debug("aggregating advisories")
	return nil
}

func handleDownloadStarted(e partybus.Event) error {
	mon, err := parsers.ParseDownloadStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}
	log.WithFields("location", mon.Location).Debug("downloading archive")
	return nil
}

func handleNonRootCommandFinished(e partybus.Event, reportOutput io.Writer) error {
	result, err := parsers.ParseNonRootCommandFinished(e)
	if err != nil {
		return fmt.Errorf("bad NonRootCommandFinished event: %w", err)
	}

	if _, err := reportOutput.Write([]byte(*result)); err != nil {
		return fmt.Errorf("unable to show command report: %w", err)
	}
	return nil
}
