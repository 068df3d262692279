package announce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store"
)

const bashAdvisory = `Fedora Update Notification
FEDORA-2020-abc123 2020-02-01 00:00

Name: bash
Version: 5.0
Release: 1.fc31
Product: Fedora 31

Fixes CVE-2020-0001.
`

func bashMessage() resource.Message {
	return resource.Message{
		ID:      "<bash-update@fedoraproject.org>",
		Date:    "Sat, 01 Feb 2020 00:10:00 +0000 (UTC)",
		Subject: "Fedora 31 Update: bash-5.0-1.fc31",
		Body:    bashAdvisory,
	}
}

func TestExtract_BashAdvisory(t *testing.T) {
	got, err := NewExtractor().Extract(bashMessage())
	require.NoError(t, err)

	assert.Equal(t, "FEDORA-2020-abc123", got.AdvisoryID)
	assert.Equal(t, "bash-5.0-1.fc31", got.RPM())
	assert.Equal(t, "Fedora Linux", got.ProductFamily())
	assert.Equal(t, []string{"CVE-2020-0001"}, got.CVEs)
	assert.Equal(t, "Fedora 31", got.Product)
	assert.Equal(t, time.Date(2020, time.February, 1, 0, 10, 0, 0, time.UTC), got.MessageDate)
	require.NotNil(t, got.AdvisoryDate)
	assert.Equal(t, "2020-02-01", got.AdvisoryDate.Format("2006-01-02"))
	assert.Empty(t, got.Summary)
}

func TestExtract_FedoraNotification(t *testing.T) {
	msg := resource.Message{
		ID:      "<20200302021141.ABC123@bastion01.fedoraproject.org>",
		Date:    "Mon, 02 Mar 2020 02:11:41 +0000 (UTC)",
		Subject: "[SECURITY] Fedora 31 Update: bash-5.0.11-1.fc31",
		Body: `--------------------------------------------------------------------------------
Fedora Update Notification
FEDORA-2020-aaaa111111
2020-03-02 02:10:51.123456
--------------------------------------------------------------------------------

Name        : bash
Product     : Fedora 31
Version     : 5.0.11
Release     : 1.fc31
URL         : https://www.gnu.org/software/bash
Summary     : The GNU Bourne Again shell

Update Information:

Security fix for CVE-2019-18276, CVE-2019-9924 and CVE-2019-18276 again.

References:

  [ 1 ] Bug #1790224 - CVE-2019-18276 bash: when effective UID is not equal to its real UID the saved UID is not dropped
        https://bugzilla.redhat.com/show_bug.cgi?id=1790224
`,
	}

	got, err := NewExtractor().Extract(msg)
	require.NoError(t, err)

	assert.Equal(t, "FEDORA-2020-aaaa111111", got.AdvisoryID)
	assert.Equal(t, "The GNU Bourne Again shell", got.Summary)
	assert.Equal(t, []string{"CVE-2019-18276", "CVE-2019-9924"}, got.CVEs)
	assert.Equal(t, "bash-5.0.11-1.fc31", got.RPM())
	assert.Equal(t, "1", got.ReleaseNum())
	assert.Equal(t, "fc31", got.ReleaseTarget())
	require.NotNil(t, got.AdvisoryDate)
	assert.Equal(t, "2020-03-02", got.AdvisoryDate.Format("2006-01-02"))
	assert.Equal(t, []store.Bugzilla{{
		ID:          "1790224",
		Description: "CVE-2019-18276 bash: when effective UID is not equal to its real UID the saved UID is not dropped",
		URL:         "https://bugzilla.redhat.com/show_bug.cgi?id=1790224",
	}}, got.Bugzillas)
}

func TestExtractor_Bugzillas(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []store.Bugzilla
	}{
		{
			name: "no references",
			text: bashAdvisory,
		},
		{
			name: "quoted printable url and duplicates",
			text: `References:

  [ 1 ] Bug #1 - first issue
        https://bugzilla.redhat.com/show_bug.cgi?id=3D1
  [ 2 ] Bug #2 - second issue
        https://bugzilla.redhat.com/show_bug.cgi?id=2
  [ 3 ] Bug #1 - first issue
        https://bugzilla.redhat.com/show_bug.cgi?id=1
`,
			want: []store.Bugzilla{
				{ID: "1", Description: "first issue", URL: "https://bugzilla.redhat.com/show_bug.cgi?id=1"},
				{ID: "2", Description: "second issue", URL: "https://bugzilla.redhat.com/show_bug.cgi?id=2"},
			},
		},
		{
			name: "tracker url missing",
			text: "  [ 1 ] Bug #1 - first issue\n        https://example.com/1\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, NewExtractor().Bugzillas(test.text))
		})
	}
}

func TestExtract_CentOSFamily(t *testing.T) {
	msg := resource.Message{
		ID:      "<centos@lists.centos.org>",
		Date:    "Tue, 3 Mar 2020 10:00:00 -0500",
		Subject: "[CentOS-announce] CESA-2020:0630 Important CentOS 7 ppp Security Update",
		Body: `CentOS Errata and Security Advisory 2020:0630 Important
CESA-2020:0630 Important CentOS 7 ppp Security Update

Name: ppp
Version: 2.4.5
Release: 34.el7_7
Product: CentOS 7

Upstream details at : https://access.redhat.com/errata/RHSA-2020:0630
`,
	}

	got, err := NewExtractor().Extract(msg)
	require.NoError(t, err)
	assert.Equal(t, "CESA-2020:0630", got.AdvisoryID)
	assert.Equal(t, "CentOS", got.ProductFamily())
	assert.Empty(t, got.CVEs)
	assert.Nil(t, got.AdvisoryDate)
	assert.Equal(t, time.Date(2020, time.March, 3, 15, 0, 0, 0, time.UTC), got.MessageDate)
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*resource.Message)
		wantField string
	}{
		{name: "missing id", mutate: func(m *resource.Message) { m.ID = "" }, wantField: "Message-Id"},
		{name: "bad date", mutate: func(m *resource.Message) { m.Date = "sometime last week" }, wantField: "Date"},
		{name: "no advisory line", mutate: func(m *resource.Message) { m.Body = "Name: bash\nCVE-2020-0001\n" }, wantField: "advisory"},
		{name: "no name", mutate: func(m *resource.Message) { m.Body = "FEDORA-2020-1\nVersion: 1\nRelease: 1\nProduct: Fedora 31\n" }, wantField: "Name"},
		{name: "no release", mutate: func(m *resource.Message) { m.Body = "FEDORA-2020-1\nName: a\nVersion: 1\nProduct: Fedora 31\n" }, wantField: "Release"},
		{name: "blank product", mutate: func(m *resource.Message) { m.Body = "FEDORA-2020-1\nName: a\nVersion: 1\nRelease: 1\nProduct:\n" }, wantField: "Product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := bashMessage()
			tt.mutate(&msg)

			_, err := NewExtractor().Extract(msg)
			var malformed *redteamerr.MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.wantField, malformed.Field)
		})
	}
}

func TestIsSecurityRelevant(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    bool
	}{
		{name: "cve and advisory", subject: "Fedora 31 Update: bash", body: bashAdvisory, want: true},
		{name: "security subject and advisory", subject: "[SECURITY] Fedora 31 Update: vim", body: "FEDORA-2020-1\nName: vim\n", want: true},
		{name: "cve in subject only", subject: "Fix CVE-2020-1234", body: "RHSA-2020:1234\n", want: true},
		{name: "advisory without cve or security", subject: "Fedora 31 Update: vim", body: "FEDORA-2020-1\nBug fix release.\n"},
		{name: "cve without advisory line", subject: "CVE-2020-0001 discussion", body: "what about CVE-2020-0001?\n"},
		{name: "nothing", subject: "Meeting minutes", body: "agenda\n"},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsSecurityRelevant(resource.Message{ID: "<x>", Subject: tt.subject, Body: tt.body}))
		})
	}
}
