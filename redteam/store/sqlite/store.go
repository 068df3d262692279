package sqlite

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/store"
	"github.com/kevensen/frtsdk/redteam/store/internal/gormadapter"
)

var _ store.Store = (*Store)(nil)

// Store is the sqlite backed implementation of store.Store.
type Store struct {
	*sourceStore
	*cveItemStore
	*messageStore
	*cvrfStore
	db   *gorm.DB
	path string
}

type Config struct {
	// Path is the DB file; an empty path yields an in-memory DB.
	Path     string
	Truncate bool
	Debug    bool
}

func Models() []any {
	return []any{
		&store.Source{},
		&store.SourceStatus{},
		&store.CveItem{},
		&store.AdvisoryMessage{},
		&store.CVRF{},
		&cvrfFact{},
		&idModel{},
	}
}

func New(cfg Config) (*Store, error) {
	db, err := gormadapter.Open(cfg.Path,
		gormadapter.WithTruncate(cfg.Truncate),
		gormadapter.WithWritable(true, Models()),
		gormadapter.WithDebug(cfg.Debug),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := writeID(db, time.Now()); err != nil {
		return nil, err
	}

	return &Store{
		sourceStore:  newSourceStore(db),
		cveItemStore: newCveItemStore(db),
		messageStore: newMessageStore(db),
		cvrfStore:    newCVRFStore(db),
		db:           db,
		path:         cfg.Path,
	}, nil
}

func (s *Store) GetDB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	log.WithFields("path", s.path).Debug("closing store")
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unable to access DB connection: %w", err)
	}
	return sqlDB.Close()
}

func deleteAll(db *gorm.DB, table string) error {
	if err := db.Exec("DELETE FROM " + table).Error; err != nil {
		return fmt.Errorf("failed to delete all %s: %w", table, err)
	}
	return nil
}
