package sqlite

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-version"
	"gorm.io/gorm"
)

// SchemaVersion is the layout of the tables written by this package. Stores sharing the major version can be read
// by this build.
const SchemaVersion = "1.0.0"

const idTableName = "id"

type idModel struct {
	BuildTimestamp string `gorm:"column:build_timestamp;not null"`
	SchemaVersion  string `gorm:"column:schema_version;not null"`
}

func (idModel) TableName() string {
	return idTableName
}

// writeID stamps a new store with the schema version; an existing stamp is kept.
func writeID(db *gorm.DB, now time.Time) error {
	var count int64
	if err := db.Model(&idModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("unable to read store id: %w", err)
	}
	if count > 0 {
		return nil
	}
	id := idModel{
		BuildTimestamp: now.UTC().Format(time.RFC3339),
		SchemaVersion:  SchemaVersion,
	}
	if err := db.Create(&id).Error; err != nil {
		return fmt.Errorf("unable to write store id: %w", err)
	}
	return nil
}

// compatibleSchema reports whether a store stamped with the given schema version can be read by this build.
func compatibleSchema(schema string) (bool, error) {
	current, err := version.NewVersion(SchemaVersion)
	if err != nil {
		return false, err
	}
	got, err := version.NewVersion(schema)
	if err != nil {
		return false, fmt.Errorf("invalid schema version %q: %w", schema, err)
	}
	return got.Segments()[0] == current.Segments()[0], nil
}
