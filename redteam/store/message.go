package store

import (
	"strings"
	"time"
)

// AdvisoryMessage holds the facts extracted from a single security-relevant announcement.
type AdvisoryMessage struct {
	MessageID    string     `gorm:"column:message_id;primaryKey" json:"message_id"`
	MessageDate  time.Time  `gorm:"column:message_date;index" json:"message_date"`
	Subject      string     `gorm:"column:subject" json:"subject"`
	AdvisoryID   string     `gorm:"column:advisory_id;index;not null" json:"advisory_id"`
	Summary      string     `gorm:"column:summary" json:"summary"`
	CVEs         []string   `gorm:"column:cves;serializer:json" json:"cves"`
	Name         string     `gorm:"column:name" json:"name"`
	Version      string     `gorm:"column:version" json:"version"`
	Release      string     `gorm:"column:release" json:"release"`
	Product      string     `gorm:"column:product" json:"product"`
	Bugzillas    []Bugzilla `gorm:"column:bugzillas;serializer:json" json:"bugzillas,omitempty"`
	AdvisoryDate *time.Time `gorm:"column:advisory_date" json:"advisory_date,omitempty"`
	Text         string     `gorm:"column:text" json:"text"`
}

func (AdvisoryMessage) TableName() string {
	return "advisory_messages"
}

// RPM is the package coordinate in name-version-release form.
func (m AdvisoryMessage) RPM() string {
	return strings.Join([]string{m.Name, m.Version, m.Release}, "-")
}

func (m AdvisoryMessage) productFields() []string {
	return strings.Fields(m.Product)
}

// ProductName is the first word of the product descriptor (e.g. "Fedora" for "Fedora 31").
func (m AdvisoryMessage) ProductName() string {
	fields := m.productFields()
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ProductVersion is the second word of the product descriptor (e.g. "31" for "Fedora 31").
func (m AdvisoryMessage) ProductVersion() string {
	fields := m.productFields()
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func (m AdvisoryMessage) ProductFamily() string {
	return ProductFamily(m.AdvisoryID)
}

// ProductFamily names the distribution an advisory was published for, by its id prefix.
func ProductFamily(advisoryID string) string {
	switch {
	case strings.HasPrefix(advisoryID, "FEDORA"):
		return "Fedora Linux"
	case strings.HasPrefix(advisoryID, "CEBA"), strings.HasPrefix(advisoryID, "CESA"):
		return "CentOS"
	}
	return "Red Hat Enterprise Linux"
}

func (m AdvisoryMessage) ProductReference() string {
	return m.ProductVersion() + m.ProductName()
}

func (m AdvisoryMessage) FullProductName() string {
	return m.ProductFamily() + " (v. " + m.ProductVersion() + ")"
}

// ReleaseNum is the update component of the release (everything before the first '.').
func (m AdvisoryMessage) ReleaseNum() string {
	num, _ := splitRelease(m.Release)
	return num
}

// ReleaseTarget is the remainder of the release after the first '.', or empty when there is none.
func (m AdvisoryMessage) ReleaseTarget() string {
	_, target := splitRelease(m.Release)
	return target
}

func (m AdvisoryMessage) Package() Package {
	return Package{
		Name:           m.Name,
		Version:        m.Version,
		ReleaseNum:     m.ReleaseNum(),
		ReleaseProduct: m.ReleaseTarget(),
	}
}

func (m AdvisoryMessage) ProductNameEntry() ProductName {
	return ProductName{Name: m.Product}
}

func (m AdvisoryMessage) Relationship() ProductRelationship {
	return ProductRelationship{
		ProductName: m.ProductNameEntry(),
		Package:     m.Package(),
	}
}

// HasCVE reports whether the given vulnerability id was extracted from this message.
func (m AdvisoryMessage) HasCVE(id string) bool {
	for _, c := range m.CVEs {
		if c == id {
			return true
		}
	}
	return false
}

func splitRelease(release string) (string, string) {
	num, target, found := strings.Cut(release, ".")
	if !found {
		return release, ""
	}
	return num, target
}
