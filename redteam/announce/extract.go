package announce

import (
	"regexp"
	"strings"
	"time"

	"github.com/scylladb/go-set/strset"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store"
)

const advisoryDateLayout = "2006-01-02"

var (
	cvePattern          = regexp.MustCompile(`CVE-\d{4}-\d+`)
	advisoryPattern     = regexp.MustCompile(`(?m)^[ \t]*((?:FEDORA|RHSA|CESA|CEBA)-.*)$`)
	advisoryDatePattern = regexp.MustCompile(`(?m)^(\d{4}-\d{2}-\d{2})[\s\d:.]*$`)
	inlineDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	summaryPattern      = regexp.MustCompile(`(?m)^Summary\W*(.*)$`)
	productPattern      = regexp.MustCompile(`(?m)^[ \t]*Product[ \t]*:[ \t]*(.*)$`)
	namePattern         = regexp.MustCompile(`(?m)^[ \t]*Name[ \t]*:[ \t]*(.*)$`)
	versionPattern      = regexp.MustCompile(`(?m)^[ \t]*Version[ \t]*:[ \t]*(.*)$`)
	releasePattern      = regexp.MustCompile(`(?m)^[ \t]*Release[ \t]*:[ \t]*(.*)$`)
	// "  [ 1 ] Bug #1790224 - CVE-2019-18276 bash: ..." followed by the tracker url on the next line
	bugzillaPattern     = regexp.MustCompile(`(?m)^[ \t]*\[ ?\d+ ?\][ \t]*Bug #(\d+) - (.+)\r?\n[ \t]*(https://bugzilla\.redhat\.com\S*)`)
)

// Extractor classifies archived announcements and pulls advisory facts out of the security-relevant ones.
type Extractor struct {
	cve          *regexp.Regexp
	advisory     *regexp.Regexp
	advisoryDate *regexp.Regexp
	inlineDate   *regexp.Regexp
	summary      *regexp.Regexp
	product      *regexp.Regexp
	name         *regexp.Regexp
	version      *regexp.Regexp
	release      *regexp.Regexp
	bugzilla     *regexp.Regexp
}

func NewExtractor() *Extractor {
	return &Extractor{
		cve:          cvePattern,
		advisory:     advisoryPattern,
		advisoryDate: advisoryDatePattern,
		inlineDate:   inlineDatePattern,
		summary:      summaryPattern,
		product:      productPattern,
		name:         namePattern,
		version:      versionPattern,
		release:      releasePattern,
		bugzilla:     bugzillaPattern,
	}
}

// IsSecurityRelevant reports whether the message references a vulnerability id (or says "security" in its subject)
// and carries an advisory id line.
func (e *Extractor) IsSecurityRelevant(msg resource.Message) bool {
	mentionsVulnerability := e.cve.MatchString(msg.Subject) || e.cve.MatchString(msg.Body) ||
		strings.Contains(strings.ToLower(msg.Subject), "security")

	return mentionsVulnerability && e.advisory.MatchString(msg.Body)
}

// CVEs returns the distinct vulnerability ids in order of first appearance.
func (e *Extractor) CVEs(text string) []string {
	seen := strset.New()
	var ids []string
	for _, id := range e.cve.FindAllString(text, -1) {
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		ids = append(ids, id)
	}
	return ids
}

func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Extract builds an advisory message from an announcement. Messages missing the advisory line or any of the package
// coordinates are rejected with a MalformedInputError.
func (e *Extractor) Extract(msg resource.Message) (*store.AdvisoryMessage, error) {
	if msg.ID == "" {
		return nil, &redteamerr.MalformedInputError{Field: "Message-Id"}
	}

	date, err := ParseDate(msg.Date)
	if err != nil {
		return nil, &redteamerr.MalformedInputError{ID: msg.ID, Field: "Date", Err: err}
	}

	line, ok := firstGroup(e.advisory, msg.Body)
	if !ok {
		return nil, &redteamerr.MalformedInputError{ID: msg.ID, Field: "advisory"}
	}

	out := &store.AdvisoryMessage{
		MessageID:   msg.ID,
		MessageDate: date,
		Subject:     msg.Subject,
		AdvisoryID:  strings.Fields(line)[0],
		CVEs:        e.CVEs(msg.Subject + "\n" + msg.Body),
		Text:        msg.Body,
	}

	out.Summary, _ = firstGroup(e.summary, msg.Body)

	required := []struct {
		field string
		re    *regexp.Regexp
		dst   *string
		strip bool
	}{
		{field: "Name", re: e.name, dst: &out.Name, strip: true},
		{field: "Version", re: e.version, dst: &out.Version, strip: true},
		{field: "Release", re: e.release, dst: &out.Release, strip: true},
		{field: "Product", re: e.product, dst: &out.Product},
	}
	for _, r := range required {
		value, ok := firstGroup(r.re, msg.Body)
		if r.strip {
			value = strings.Join(strings.Fields(value), "")
		}
		if !ok || value == "" {
			return nil, &redteamerr.MalformedInputError{ID: msg.ID, Field: r.field}
		}
		*r.dst = value
	}

	out.AdvisoryDate = e.extractAdvisoryDate(line, msg.Body)
	out.Bugzillas = e.Bugzillas(msg.Body)

	return out, nil
}

// Bugzillas returns the distinct tracker entries listed in the references section of an announcement. Quoted
// printable "=3D" escapes left in archived urls are undone.
func (e *Extractor) Bugzillas(text string) []store.Bugzilla {
	seen := strset.New()
	var out []store.Bugzilla
	for _, m := range e.bugzilla.FindAllStringSubmatch(text, -1) {
		if seen.Has(m[1]) {
			continue
		}
		seen.Add(m[1])
		out = append(out, store.Bugzilla{
			ID:          m[1],
			Description: strings.TrimSpace(m[2]),
			URL:         strings.ReplaceAll(strings.TrimSpace(m[3]), "=3D", "="),
		})
	}
	return out
}

// the date on the advisory line wins over the first standalone date line
func (e *Extractor) extractAdvisoryDate(line, body string) *time.Time {
	candidates := []string{}
	if d, ok := firstGroup(e.inlineDate, line); ok {
		candidates = append(candidates, d)
	}
	if d, ok := firstGroup(e.advisoryDate, body); ok {
		candidates = append(candidates, d)
	}

	for _, c := range candidates {
		if t, err := time.Parse(advisoryDateLayout, c); err == nil {
			return &t
		}
	}
	return nil
}
