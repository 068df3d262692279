package cvrf

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"testing"

	"github.com/anchore/go-testutils"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/nvd"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
	"github.com/kevensen/frtsdk/redteam/store/sqlite"
)

var update = flag.Bool("update", false, "update the *.golden files for assembled documents")

func loadFeed(t *testing.T, s *sqlite.Store) {
	t.Helper()
	payload, err := os.ReadFile("../nvd/test-fixtures/nvdcve-1.0-sample.json")
	require.NoError(t, err)
	feed, err := nvd.DecodeFeed(payload)
	require.NoError(t, err)
	_, err = nvd.Process(context.Background(), s, feed)
	require.NoError(t, err)
}

func TestAssemble(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	addMessages(t, s, message("<1@x>", "FEDORA-2020-abc123", "Fedora 31", "1.fc31", "CVE-2019-18276"))
	_, err := Refresh(ctx, s, Options{Now: clock(day2)})
	require.NoError(t, err)

	// the vulnerability record is synced after aggregation: no references, and no error
	doc, err := Assemble(ctx, s, "FEDORA-2020-abc123")
	require.NoError(t, err)
	assert.Empty(t, doc.DocumentReferences)

	// references are derived on read, so they show up once the record exists
	loadFeed(t, s)
	doc, err = Assemble(ctx, s, "FEDORA-2020-abc123")
	require.NoError(t, err)

	expected := &Document{
		AdvisoryID: "FEDORA-2020-abc123",
		Title:      "The GNU Bourne Again shell",
		Version:    "1",
		RevisionHistory: []Revision{
			{Number: "1", Date: day2, Description: "Initial release"},
		},
		InitialReleaseDate: day1,
		CurrentReleaseDate: day2,
		Vulnerabilities:    []string{"CVE-2019-18276"},
		DocumentReferences: []DocumentReference{
			{URL: "https://github.com/bminor/bash/commit/951bdaad7a18cc0dc1036bba86b18b90874d39ff", Description: "Reference for CVE-2019-18276"},
			{URL: "https://www.youtube.com/watch?v=-wGtxJ8opa8", Description: "Reference for CVE-2019-18276"},
		},
		ProductTree: ProductTree{
			Relationships: []Relationship{
				{
					FullProductName:           "bash-5.0-1.fc31 as a component of Fedora Linux (v. 31)",
					ProductReference:          "bash-5.0-1.fc31",
					RelationType:              "Default Component Of",
					RelatesToProductReference: "31Fedora",
				},
			},
			Branches: []Branch{
				{
					Name:            "bash-5.0-1.fc31",
					Type:            "Product Version",
					FullProductName: "bash-5.0-1.fc31.src.rpm",
					ProductID:       "pkg:rpm/fedora/bash@5.0-1.fc31",
					CPE:             "cpe:2.3:a:fedoraproject:bash:5.0:*:*:*:*:*:*:*",
				},
				{
					Name:            "Fedora Linux (v. 31)",
					Type:            "Product Name",
					FullProductName: "Fedora Linux (v. 31)",
					ProductID:       "31Fedora",
					CPE:             "cpe:2.3:o:fedoraproject:fedora:31:*:*:*:*:*:*:*",
				},
			},
		},
	}

	if d := cmp.Diff(expected, doc); d != "" {
		t.Errorf("unexpected document (-want +got): %s", d)
	}
}

func TestAssemble_JSONShape(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := message("<1@x>", "FEDORA-2020-abc123", "Fedora 31", "1.fc31", "CVE-2020-0001")
	m.Bugzillas = []store.Bugzilla{
		{ID: "1790224", Description: "CVE-2020-0001 bash: saved UID is not dropped", URL: "https://bugzilla.redhat.com/show_bug.cgi?id=1790224"},
	}
	addMessages(t, s, m)
	_, err := Refresh(ctx, s, Options{Now: clock(day2)})
	require.NoError(t, err)

	doc, err := Assemble(ctx, s, "FEDORA-2020-abc123")
	require.NoError(t, err)

	actual, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	actual = append(actual, '\n')

	if *update {
		testutils.UpdateGoldenFileContents(t, actual)
	}

	expected := testutils.GetGoldenFileContents(t)
	assert.JSONEq(t, string(expected), string(actual))
}

func TestAssemble_NotFound(t *testing.T) {
	_, err := Assemble(context.Background(), newStore(t), "FEDORA-2020-missing")
	assert.True(t, redteamerr.IsNotFound(err))
}

func TestRevisionHistory(t *testing.T) {
	history := revisionHistory(store.CVRF{Revision: 3, InitialReleaseDate: day1, RevisionDate: day3})
	require.Len(t, history, 3)
	assert.Equal(t, "Initial release", history[0].Description)
	assert.Equal(t, day1, history[1].Date)
	assert.Equal(t, "3", history[2].Number)
	assert.Equal(t, day3, history[2].Date)
}
