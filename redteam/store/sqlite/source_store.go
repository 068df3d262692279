package sqlite

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

type sourceStore struct {
	db *gorm.DB
}

func newSourceStore(db *gorm.DB) *sourceStore {
	return &sourceStore{
		db: db,
	}
}

// the history is append-only, so insertion order is the order of record
func orderedStatuses(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (s *sourceStore) AddSource(src *store.Source) error {
	if src.Kind == "" {
		src.Kind = store.URLKind
	}
	if err := s.db.Omit("Statuses").Create(src).Error; err != nil {
		return fmt.Errorf("failed to create source record (section=%q): %w", src.Section, err)
	}
	return nil
}

func (s *sourceStore) UpdateSource(src store.Source) error {
	result := s.db.Model(&store.Source{}).Where("id = ?", src.ID).Updates(map[string]interface{}{
		"section":    src.Section,
		"location":   src.Location,
		"kind":       src.Kind,
		"tls_verify": src.TLSVerify,
		"cache":      src.Cache,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update source (id=%d): %w", src.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &redteamerr.NotFoundError{Collection: "source", Key: strconv.FormatInt(src.ID, 10)}
	}
	return nil
}

func (s *sourceStore) GetSource(id int64) (*store.Source, error) {
	log.WithFields("id", id).Trace("fetching source record")

	var src store.Source
	result := s.db.Preload("Statuses", orderedStatuses).Where("id = ?", id).First(&src)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, &redteamerr.NotFoundError{Collection: "source", Key: strconv.FormatInt(id, 10)}
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch source (id=%d): %w", id, result.Error)
	}
	return &src, nil
}

func (s *sourceStore) GetSourceBySection(section string) (*store.Source, error) {
	var src store.Source
	result := s.db.Preload("Statuses", orderedStatuses).Where("section = ?", section).First(&src)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, &redteamerr.NotFoundError{Collection: "source", Key: section}
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch source (section=%q): %w", section, result.Error)
	}
	return &src, nil
}

func (s *sourceStore) AllSources() ([]store.Source, error) {
	log.Trace("fetching all source records")

	var sources []store.Source
	if err := s.db.Preload("Statuses", orderedStatuses).Order("id").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch all sources: %w", err)
	}
	return sources, nil
}

func (s *sourceStore) SourceHistory(id int64) ([]store.SourceStatus, error) {
	var statuses []store.SourceStatus
	if err := orderedStatuses(s.db).Where("source_id = ?", id).Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch source history (id=%d): %w", id, err)
	}
	return statuses, nil
}

func (s *sourceStore) AddStatus(sourceID int64, status store.SyncStatus, date time.Time) (*store.SourceStatus, error) {
	st := store.SourceStatus{
		SourceID: sourceID,
		Status:   status,
		Date:     date,
	}
	if err := s.db.Create(&st).Error; err != nil {
		return nil, fmt.Errorf("failed to record status %q for source (id=%d): %w", status, sourceID, err)
	}
	return &st, nil
}

func (s *sourceStore) DeleteSources() error {
	if err := deleteAll(s.db, store.SourceStatus{}.TableName()); err != nil {
		return err
	}
	return deleteAll(s.db, store.Source{}.TableName())
}
