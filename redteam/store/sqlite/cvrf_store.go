package sqlite

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

// cvrfFact is a single member of one of the advisory document sets; the composite primary key is what makes the
// sets true sets.
type cvrfFact struct {
	AdvisoryID string `gorm:"column:advisory_id;primaryKey"`
	Kind       string `gorm:"column:kind;primaryKey"`
	Key        string `gorm:"column:fact_key;primaryKey"`
	Value      string `gorm:"column:value;not null"`
}

func (cvrfFact) TableName() string {
	return "cvrf_facts"
}

type cvrfStore struct {
	db *gorm.DB
}

func newCVRFStore(db *gorm.DB) *cvrfStore {
	return &cvrfStore{
		db: db,
	}
}

func (s *cvrfStore) CVRFExists(advisoryID string) (bool, error) {
	var count int64
	if err := s.db.Model(&store.CVRF{}).Where("advisory_id = ?", advisoryID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check for cvrf %q: %w", advisoryID, err)
	}
	return count > 0, nil
}

func (s *cvrfStore) GetCVRF(advisoryID string) (*store.CVRF, error) {
	var c store.CVRF
	result := s.db.Where("advisory_id = ?", advisoryID).First(&c)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, &redteamerr.NotFoundError{Collection: "cvrf", Key: advisoryID}
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch cvrf %q: %w", advisoryID, result.Error)
	}

	var rows []cvrfFact
	// rowid preserves the order facts were first added
	if err := s.db.Where("advisory_id = ?", advisoryID).Order("rowid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch facts for cvrf %q: %w", advisoryID, err)
	}

	facts := make([]store.Fact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, store.Fact{Kind: store.FactKind(r.Kind), Key: r.Key, Value: []byte(r.Value)})
	}

	if err := store.ApplyFacts(&c, facts); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *cvrfStore) AdvisoryIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&store.CVRF{}).Order("advisory_id").Pluck("advisory_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch advisory ids: %w", err)
	}
	return ids, nil
}

func (s *cvrfStore) UpsertCVRF(c store.CVRF) error {
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error; err != nil {
		return fmt.Errorf("failed to write cvrf %q: %w", c.AdvisoryID, err)
	}
	return nil
}

func (s *cvrfStore) AddToSet(advisoryID string, fact store.Fact) (bool, error) {
	row := cvrfFact{
		AdvisoryID: advisoryID,
		Kind:       string(fact.Kind),
		Key:        fact.Key,
		Value:      string(fact.Value),
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to add %s fact to cvrf %q: %w", fact.Kind, advisoryID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *cvrfStore) DeleteCVRFs() error {
	if err := deleteAll(s.db, cvrfFact{}.TableName()); err != nil {
		return err
	}
	return deleteAll(s.db, store.CVRF{}.TableName())
}
