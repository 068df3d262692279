package sqlite

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

type cveItemStore struct {
	db *gorm.DB
}

func newCveItemStore(db *gorm.DB) *cveItemStore {
	return &cveItemStore{
		db: db,
	}
}

func (s *cveItemStore) CveItemExists(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&store.CveItem{}).Where("cve_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check for cve item %q: %w", id, err)
	}
	return count > 0, nil
}

func (s *cveItemStore) GetCveItem(id string) (*store.CveItem, error) {
	var item store.CveItem
	result := s.db.Where("cve_id = ?", id).First(&item)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, &redteamerr.NotFoundError{Collection: "cve_item", Key: id}
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch cve item %q: %w", id, result.Error)
	}
	return &item, nil
}

func (s *cveItemStore) CveItemCount() (int64, error) {
	var count int64
	if err := s.db.Model(&store.CveItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cve items: %w", err)
	}
	return count, nil
}

func (s *cveItemStore) UpsertCveItem(item store.CveItem) error {
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error; err != nil {
		return fmt.Errorf("failed to write cve item %q: %w", item.CVEID, err)
	}
	return nil
}

func (s *cveItemStore) DeleteCveItems() error {
	return deleteAll(s.db, store.CveItem{}.TableName())
}
