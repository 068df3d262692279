package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/kevensen/frtsdk/redteam/event"
	"github.com/kevensen/frtsdk/redteam/event/monitor"
)

func TestParseSourceSync(t *testing.T) {
	value := monitor.SourceSync{RunID: "run", SourceID: 3, Location: "https://example.com", Type: "nvd", Status: "success"}

	got, err := ParseSourceSyncFinished(partybus.Event{Type: event.SourceSyncFinished, Value: value})
	require.NoError(t, err)
	assert.Equal(t, value, *got)

	_, err = ParseSourceSyncStarted(partybus.Event{Type: event.SourceSyncFinished, Value: value})
	var payloadErr *ErrBadPayload
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "Type", payloadErr.Field)
}

func TestParseFeedDiffStarted(t *testing.T) {
	processed := progress.NewManual(10)
	mon := monitor.FeedDiff{
		RecordsProcessed: processed,
		Added:            progress.NewManual(-1),
		Modified:         progress.NewManual(-1),
		Skipped:          progress.NewManual(-1),
	}

	got, err := ParseFeedDiffStarted(partybus.Event{Type: event.FeedDiffStarted, Value: mon})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.RecordsProcessed.Size())

	_, err = ParseFeedDiffStarted(partybus.Event{Type: event.FeedDiffStarted, Value: "nope"})
	var payloadErr *ErrBadPayload
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "Value", payloadErr.Field)
}

func TestParseDownloadStarted(t *testing.T) {
	mon := monitor.Download{Location: "https://lists.example/2020-March.txt.gz", Progress: progress.NewManual(-1)}

	got, err := ParseDownloadStarted(partybus.Event{Type: event.DownloadStarted, Value: mon})
	require.NoError(t, err)
	assert.Equal(t, mon.Location, got.Location)

	_, err = ParseDownloadStarted(partybus.Event{Type: event.AggregationStarted, Value: mon})
	assert.Error(t, err)
}

func TestParseNonRootCommandFinished(t *testing.T) {
	got, err := ParseNonRootCommandFinished(partybus.Event{Type: event.NonRootCommandFinished, Value: "report"})
	require.NoError(t, err)
	assert.Equal(t, "report", *got)

	_, err = ParseNonRootCommandFinished(partybus.Event{Type: event.NonRootCommandFinished, Value: 42})
	assert.Error(t, err)
}
