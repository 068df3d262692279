package event

import "github.com/wagoodman/go-partybus"

const (
	SyncStarted              partybus.EventType = "redteam-sync-started"
	SourceSyncStarted        partybus.EventType = "redteam-source-sync-started"
	SourceSyncFinished       partybus.EventType = "redteam-source-sync-finished"
	FeedDiffStarted          partybus.EventType = "redteam-feed-diff-started"
	MessageExtractionStarted partybus.EventType = "redteam-message-extraction-started"
	AggregationStarted       partybus.EventType = "redteam-aggregation-started"
	DownloadStarted          partybus.EventType = "redteam-download-started"
	NonRootCommandFinished   partybus.EventType = "redteam-non-root-command-finished"
)
