package nvd

import (
	"context"
	"os"
	"testing"

	"github.com/facebookincubator/nvdtools/cvefeed/nvd/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/scylladb/go-set/strset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
	"github.com/kevensen/frtsdk/redteam/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(sqlite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func feedItem(id, lastModified string) *schema.NVDCVEFeedJSON10DefCVEItem {
	return &schema.NVDCVEFeedJSON10DefCVEItem{
		CVE: &schema.CVEJSON40{
			CVEDataMeta: &schema.CVEJSON40CVEDataMeta{ID: id},
			DataFormat:  "MITRE",
			DataType:    "CVE",
			DataVersion: "4.0",
		},
		PublishedDate:    "2020-01-01T00:00Z",
		LastModifiedDate: lastModified,
	}
}

func feedOf(items ...*schema.NVDCVEFeedJSON10DefCVEItem) *schema.NVDCVEFeedJSON10 {
	return &schema.NVDCVEFeedJSON10{CVEItems: items}
}

func TestProcess_Scenarios(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// empty store: the record is new
	result, err := Process(ctx, s, feedOf(feedItem("CVE-2020-0001", "2020-01-02T00:00Z")))
	require.NoError(t, err)
	assert.Equal(t, []string{"CVE-2020-0001"}, result.Added)
	assert.Empty(t, result.Modified)
	assert.Empty(t, result.Unchanged)

	// the same feed again: nothing changes
	result, err = Process(ctx, s, feedOf(feedItem("CVE-2020-0001", "2020-01-02T00:00Z")))
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Modified)
	assert.Equal(t, []string{"CVE-2020-0001"}, result.Unchanged)

	// a later last-modified timestamp is a modification
	result, err = Process(ctx, s, feedOf(feedItem("CVE-2020-0001", "2020-01-03T00:00Z")))
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"CVE-2020-0001"}, result.Modified)
	assert.Empty(t, result.Unchanged)

	stored, err := s.GetCveItem("CVE-2020-0001")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-03T00:00Z", stored.LastModifiedDate.Format(TimeLayout))

	// an older timestamp never overwrites
	result, err = Process(ctx, s, feedOf(feedItem("CVE-2020-0001", "2019-12-01T00:00Z")))
	require.NoError(t, err)
	assert.Equal(t, []string{"CVE-2020-0001"}, result.Unchanged)
}

func TestProcess_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	payload, err := os.ReadFile("test-fixtures/nvdcve-1.0-sample.json")
	require.NoError(t, err)
	feed, err := DecodeFeed(payload)
	require.NoError(t, err)

	first, err := Process(ctx, s, feed)
	require.NoError(t, err)
	require.NotEmpty(t, first.Added)

	before := snapshot(t, s, first.Added)

	second, err := Process(ctx, s, feed)
	require.NoError(t, err)
	assert.Empty(t, second.Added)
	assert.Empty(t, second.Modified)
	assert.ElementsMatch(t, first.Added, second.Unchanged)

	if d := cmp.Diff(before, snapshot(t, s, first.Added)); d != "" {
		t.Errorf("stored records changed on re-run (-before +after):\n%s", d)
	}
}

func snapshot(t *testing.T, s store.CveItemStoreReader, ids []string) map[string]store.CveItem {
	t.Helper()
	out := make(map[string]store.CveItem)
	for _, id := range ids {
		item, err := s.GetCveItem(id)
		require.NoError(t, err)
		out[id] = *item
	}
	return out
}

func TestProcess_Partition(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := Process(ctx, s, feedOf(
		feedItem("CVE-2020-1000", "2020-01-01T00:00Z"),
		feedItem("CVE-2020-1001", "2020-01-01T00:00Z"),
	))
	require.NoError(t, err)

	batch := feedOf(
		feedItem("CVE-2020-1000", "2020-01-01T00:00Z"), // unchanged
		feedItem("CVE-2020-1001", "2020-02-01T00:00Z"), // modified
		feedItem("CVE-2020-1002", "2020-01-01T00:00Z"), // added
		feedItem("CVE-2020-1002", "2020-03-01T00:00Z"), // repeated within the batch
		feedItem("", "2020-01-01T00:00Z"),              // malformed
		feedItem("CVE-2020-1003", "not a date"),        // malformed
	)

	result, err := Process(ctx, s, batch)
	require.NoError(t, err)

	assert.Equal(t, []string{"CVE-2020-1002"}, result.Added)
	assert.Equal(t, []string{"CVE-2020-1001"}, result.Modified)
	assert.Equal(t, []string{"CVE-2020-1000"}, result.Unchanged)
	assert.Equal(t, 3, result.Total())

	added, modified, unchanged := strset.New(result.Added...), strset.New(result.Modified...), strset.New(result.Unchanged...)
	assert.True(t, strset.Intersection(added, modified).IsEmpty())
	assert.True(t, strset.Intersection(added, unchanged).IsEmpty())
	assert.True(t, strset.Intersection(modified, unchanged).IsEmpty())
	assert.True(t, strset.Union(added, modified, unchanged).IsEqual(strset.New("CVE-2020-1000", "CVE-2020-1001", "CVE-2020-1002")))

	require.Len(t, result.Skipped, 3)
	for _, skipped := range result.Skipped {
		assert.True(t, redteamerr.IsMalformedInput(skipped), "unexpected error: %v", skipped)
	}
	require.Error(t, result.Err())

	exists, err := s.CveItemExists("CVE-2020-1003")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProcess_Fixture(t *testing.T) {
	payload, err := os.ReadFile("test-fixtures/nvdcve-1.0-sample.json")
	require.NoError(t, err)

	feed, err := DecodeFeed(payload)
	require.NoError(t, err)
	require.Len(t, feed.CVEItems, 4)

	s := newStore(t)
	result, err := Process(context.Background(), s, feed)
	require.NoError(t, err)

	assert.Equal(t, []string{"CVE-2019-18276", "CVE-2020-0001"}, result.Added)
	require.Len(t, result.Skipped, 2)

	var malformed *redteamerr.MalformedInputError
	require.ErrorAs(t, result.Skipped[0], &malformed)
	assert.Equal(t, "CVE-2020-0002", malformed.ID)
	assert.Equal(t, "lastModifiedDate", malformed.Field)

	require.ErrorAs(t, result.Skipped[1], &malformed)
	assert.Empty(t, malformed.ID)

	count, err := s.CveItemCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, newStore(t), feedOf(feedItem("CVE-2020-0001", "2020-01-02T00:00Z")))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_NilFeed(t *testing.T) {
	result, err := Process(context.Background(), newStore(t), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}

func TestDecodeFeed_Invalid(t *testing.T) {
	_, err := DecodeFeed([]byte("<html>not json</html>"))
	assert.Error(t, err)
}
