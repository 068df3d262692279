package store

import "time"

// CveItem is a vulnerability record from the feed. The CVE, configuration and impact blocks are kept verbatim as
// JSON so that nothing from the feed is lost between syncs.
type CveItem struct {
	CVEID            string    `gorm:"column:cve_id;primaryKey" json:"cve_id"`
	CVE              string    `gorm:"column:cve;not null" json:"cve"`
	Configurations   string    `gorm:"column:configurations" json:"configurations,omitempty"`
	Impact           string    `gorm:"column:impact" json:"impact,omitempty"`
	PublishedDate    time.Time `gorm:"column:published_date" json:"published_date"`
	LastModifiedDate time.Time `gorm:"column:last_modified_date;not null" json:"last_modified_date"`
}

func (CveItem) TableName() string {
	return "cve_items"
}
