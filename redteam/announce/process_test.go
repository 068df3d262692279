package announce

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(sqlite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e := NewExtractor()

	noise := resource.Message{ID: "<noise@x>", Date: "Mon, 02 Mar 2020 02:11:41 +0000", Subject: "Meeting minutes", Body: "agenda\n"}
	broken := resource.Message{ID: "<broken@x>", Date: "Mon, 02 Mar 2020 02:11:41 +0000", Subject: "[SECURITY] update", Body: "FEDORA-2020-1\nCVE-2020-0002\n"}

	result, err := e.Process(ctx, s, []resource.Message{bashMessage(), noise, bashMessage(), broken, {Body: "no id"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"<bash-update@fedoraproject.org>"}, result.Added)
	assert.Equal(t, []string{"<noise@x>"}, result.Dropped)
	assert.Equal(t, []string{"<bash-update@fedoraproject.org>"}, result.Duplicate)
	require.Len(t, result.Skipped, 2)
	for _, err := range result.Skipped {
		assert.True(t, redteamerr.IsMalformedInput(err))
	}

	dropped, err := s.MessageExists("<noise@x>")
	require.NoError(t, err)
	assert.False(t, dropped, "non relevant messages are never stored")

	stored, err := s.GetMessage("<bash-update@fedoraproject.org>")
	require.NoError(t, err)
	assert.Equal(t, "FEDORA-2020-abc123", stored.AdvisoryID)
	assert.Equal(t, []string{"CVE-2020-0001"}, stored.CVEs)

	// a second run never re-inserts known ids
	result, err = e.Process(ctx, s, []resource.Message{bashMessage()})
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"<bash-update@fedoraproject.org>"}, result.Duplicate)
}

func TestProcess_Mailbox(t *testing.T) {
	f, err := os.Open("../resource/test-fixtures/package-announce.mbox")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	messages, err := resource.ReadMessages(f)
	require.NoError(t, err)

	result, err := NewExtractor().Process(context.Background(), newStore(t), messages)
	require.NoError(t, err)
	assert.Equal(t, []string{"<20200302021141.ABC123@bastion01.fedoraproject.org>"}, result.Added)
	assert.Equal(t, []string{"<20200303100000.DEF456@bastion01.fedoraproject.org>"}, result.Dropped)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor().Process(ctx, newStore(t), []resource.Message{bashMessage()})
	assert.ErrorIs(t, err, context.Canceled)
}
