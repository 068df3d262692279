package cvrf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scylladb/go-set/strset"

	"github.com/kevensen/frtsdk/redteam/nvd"
	"github.com/kevensen/frtsdk/redteam/store"
)

const (
	unverifiedScore = "unverified"
	affectedState   = "Affected"
)

// VulnerabilityStore is what a vulnerability document joins against.
type VulnerabilityStore interface {
	store.CveItemStoreReader
	store.AdvisoryMessageStoreReader
}

// Vulnerability is the per-vulnerability view: the stored record joined with every announcement that names it.
type Vulnerability struct {
	Name            string            `json:"name"`
	ThreatSeverity  string            `json:"threat_severity"`
	PublicDate      time.Time         `json:"public_date"`
	CVSS            CVSS              `json:"cvss"`
	CWE             string            `json:"cwe"`
	Details         []string          `json:"details"`
	AffectedRelease []AffectedRelease `json:"affected_release"`
	PackageState    []PackageState    `json:"package_state"`
	Bugzilla        []store.Bugzilla  `json:"bugzilla"`
	References      []string          `json:"references"`
}

type CVSS struct {
	BaseScore     float64 `json:"cvss_base_score"`
	ScoringVector string  `json:"cvss_scoring_vector"`
	Status        string  `json:"status"`
}

type AffectedRelease struct {
	ProductName string    `json:"product_name"`
	ReleaseDate time.Time `json:"release_date"`
	Advisory    string    `json:"advisory"`
	Package     string    `json:"package"`
	CPE         string    `json:"cpe"`
}

type PackageState struct {
	ProductName string `json:"product_name"`
	FixState    string `json:"fix_state"`
	PackageName string `json:"package_name"`
	CPE         string `json:"cpe"`
}

// AssembleVulnerability renders the view of a single vulnerability. Unlike advisory references, the record itself is
// required: a missing record is a NotFoundError.
func AssembleVulnerability(ctx context.Context, s VulnerabilityStore, cveID string) (*Vulnerability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := s.GetCveItem(cveID)
	if err != nil {
		return nil, err
	}

	details, err := nvd.DetailsFor(*item)
	if err != nil {
		return nil, err
	}

	messages, err := s.MessagesForCVE(cveID)
	if err != nil {
		return nil, fmt.Errorf("unable to find announcements for %q: %w", cveID, err)
	}

	v := &Vulnerability{
		Name:           cveID,
		ThreatSeverity: details.CVSS3Severity,
		PublicDate:     item.PublishedDate,
		CVSS: CVSS{
			BaseScore:     details.CVSS3Score,
			ScoringVector: details.CVSS3Vector,
			Status:        unverifiedScore,
		},
		CWE:             details.CWE,
		Details:         []string{},
		AffectedRelease: []AffectedRelease{},
		PackageState:    []PackageState{},
		Bugzilla:        []store.Bugzilla{},
		References:      uniqueSorted(details.References),
	}
	if details.Description != "" {
		v.Details = append(v.Details, details.Description)
	}

	bugs := strset.New()
	for _, m := range messages {
		for _, b := range m.Bugzillas {
			// trackers are titled after the vulnerability they cover
			if bugs.Has(b.ID) || !strings.Contains(b.Description, cveID) {
				continue
			}
			bugs.Add(b.ID)
			v.Bugzilla = append(v.Bugzilla, b)
		}

		cpe, err := productCPE(m.ProductFamily(), m.ProductVersion())
		if err != nil {
			return nil, err
		}
		v.AffectedRelease = append(v.AffectedRelease, AffectedRelease{
			ProductName: m.Product,
			ReleaseDate: m.MessageDate,
			Advisory:    m.AdvisoryID,
			Package:     m.RPM(),
			CPE:         cpe,
		})
		v.PackageState = append(v.PackageState, PackageState{
			ProductName: m.Product,
			FixState:    affectedState,
			PackageName: m.Name,
			CPE:         cpe,
		})
	}

	return v, nil
}

func uniqueSorted(values []string) []string {
	out := strset.New(values...).List()
	sort.Strings(out)
	return out
}
