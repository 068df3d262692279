package store

import (
	"strings"
	"time"
)

// CVRF is the aggregated advisory document. Reference URLs are intentionally absent: they are derived from the
// vulnerability records at read time.
type CVRF struct {
	AdvisoryID         string                `gorm:"column:advisory_id;primaryKey" json:"advisory_id"`
	Summary            string                `gorm:"column:summary" json:"summary"`
	Revision           int                   `gorm:"column:revision;not null" json:"revision"`
	RevisionDate       time.Time             `gorm:"column:revision_date" json:"revision_date"`
	InitialReleaseDate time.Time             `gorm:"column:initial_release_date" json:"initial_release_date"`
	AdvisoryDate       *time.Time            `gorm:"column:advisory_date" json:"advisory_date,omitempty"`
	CVEs               []string              `gorm:"-" json:"cves"`
	ProductNames       []ProductName         `gorm:"-" json:"product_names"`
	Packages           []Package             `gorm:"-" json:"packages"`
	Relationships      []ProductRelationship `gorm:"-" json:"relationships"`
	Bugzillas          []Bugzilla            `gorm:"-" json:"bugzillas"`
	MessageIDs         []string              `gorm:"-" json:"messages"`
}

func (CVRF) TableName() string {
	return "cvrfs"
}

// HasPackage reports whether any package with the given name is attached to the document.
func (c CVRF) HasPackage(name string) bool {
	for _, p := range c.Packages {
		if p.Name == name {
			return true
		}
	}
	return false
}

type Package struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	ReleaseNum     string `json:"release_num"`
	ReleaseProduct string `json:"release_product"`
}

// FullName is the name-version-release coordinate of the package.
func (p Package) FullName() string {
	release := p.ReleaseNum
	if p.ReleaseProduct != "" {
		release += "." + p.ReleaseProduct
	}
	return strings.Join([]string{p.Name, p.Version, release}, "-")
}

// Bugzilla is a tracker entry referenced by an announcement.
type Bugzilla struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type ProductName struct {
	Name string `json:"name"`
}

// VersionNumber is the last word of the product name.
func (p ProductName) VersionNumber() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// SimpleName is the product name without its version.
func (p ProductName) SimpleName() string {
	fields := strings.Fields(p.Name)
	if len(fields) < 2 {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:len(fields)-1], " ")
}

func (p ProductName) FullProductName() string {
	return p.SimpleName() + " (v. " + p.VersionNumber() + ")"
}

type ProductRelationship struct {
	ProductName ProductName `json:"product_name"`
	Package     Package     `json:"package"`
}
