package sqlite

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

func testMessage(id, advisory string, cves ...string) store.AdvisoryMessage {
	advisoryDate := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	return store.AdvisoryMessage{
		MessageID:    id,
		MessageDate:  time.Date(2020, 2, 1, 12, 0, 0, 0, time.UTC),
		Subject:      "[SECURITY] Fedora 31 Update: bash-5.0-1.fc31",
		AdvisoryID:   advisory,
		Summary:      "The GNU Bourne Again shell",
		CVEs:         cves,
		Name:         "bash",
		Version:      "5.0",
		Release:      "1.fc31",
		Product:      "Fedora 31",
		AdvisoryDate: &advisoryDate,
		Text:         "body",
	}
}

func TestMessageStore(t *testing.T) {
	s := setupTestStore(t)

	m := testMessage("<1@example.com>", "FEDORA-2020-abc123", "CVE-2020-0001", "CVE-2020-0002")

	added, err := s.AddMessage(m)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddMessage(m)
	require.NoError(t, err)
	assert.False(t, added, "an existing message id is never re-inserted")

	got, err := s.GetMessage(m.MessageID)
	require.NoError(t, err)
	if d := cmp.Diff(m, *got); d != "" {
		t.Errorf("unexpected message (-want +got): %s", d)
	}

	_, err = s.GetMessage("<missing@example.com>")
	assert.True(t, redteamerr.IsNotFound(err))
}

func TestMessageStore_MessagesForCVE(t *testing.T) {
	s := setupTestStore(t)

	for _, m := range []store.AdvisoryMessage{
		testMessage("<1@example.com>", "FEDORA-2020-1", "CVE-2020-0001"),
		testMessage("<2@example.com>", "FEDORA-2020-2", "CVE-2020-00011"),
		testMessage("<3@example.com>", "FEDORA-2020-3", "CVE-2020-0002", "CVE-2020-0001"),
	} {
		_, err := s.AddMessage(m)
		require.NoError(t, err)
	}

	got, err := s.MessagesForCVE("CVE-2020-0001")
	require.NoError(t, err)

	var ids []string
	for _, m := range got {
		ids = append(ids, m.MessageID)
	}
	assert.ElementsMatch(t, []string{"<1@example.com>", "<3@example.com>"}, ids)

	all, err := s.AllMessages()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteMessages())
	all, err = s.AllMessages()
	require.NoError(t, err)
	assert.Empty(t, all)
}
