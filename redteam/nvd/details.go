package nvd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/facebookincubator/nvdtools/cvefeed/nvd/schema"

	"github.com/kevensen/frtsdk/redteam/store"
)

// Details are the values derived from the stored blocks of a vulnerability record.
type Details struct {
	ID            string
	Description   string
	CWE           string
	CVSS3Vector   string
	CVSS3Score    float64
	CVSS3Severity string
	References    []string
}

// DetailsFor decodes the stored blocks of a record. Absent blocks leave the related fields empty.
func DetailsFor(item store.CveItem) (*Details, error) {
	d := &Details{ID: item.CVEID}

	if item.CVE != "" {
		var cve schema.CVEJSON40
		if err := json.Unmarshal([]byte(item.CVE), &cve); err != nil {
			return nil, fmt.Errorf("unable to decode cve block for %s: %w", item.CVEID, err)
		}
		d.Description = description(&cve)
		d.CWE = cwe(&cve)
		d.References = references(&cve)
	}

	if item.Impact != "" {
		var impact schema.NVDCVEFeedJSON10DefImpact
		if err := json.Unmarshal([]byte(item.Impact), &impact); err != nil {
			return nil, fmt.Errorf("unable to decode impact block for %s: %w", item.CVEID, err)
		}
		if impact.BaseMetricV3 != nil && impact.BaseMetricV3.CVSSV3 != nil {
			d.CVSS3Vector = impact.BaseMetricV3.CVSSV3.VectorString
			d.CVSS3Score = impact.BaseMetricV3.CVSSV3.BaseScore
			d.CVSS3Severity = impact.BaseMetricV3.CVSSV3.BaseSeverity
		}
	}

	return d, nil
}

func description(cve *schema.CVEJSON40) string {
	if cve.Description == nil {
		return ""
	}
	var parts []string
	for _, d := range cve.Description.DescriptionData {
		if d != nil && d.Value != "" {
			parts = append(parts, d.Value)
		}
	}
	return strings.Join(parts, "\n")
}

func cwe(cve *schema.CVEJSON40) string {
	if cve.Problemtype == nil {
		return ""
	}
	for _, pt := range cve.Problemtype.ProblemtypeData {
		if pt == nil {
			continue
		}
		for _, d := range pt.Description {
			if d != nil && d.Value != "" {
				return d.Value
			}
		}
	}
	return ""
}

func references(cve *schema.CVEJSON40) []string {
	if cve.References == nil {
		return nil
	}
	var urls []string
	for _, r := range cve.References.ReferenceData {
		if r != nil && r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}
