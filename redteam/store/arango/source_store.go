package arango

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

func (s *Store) AddSource(src *store.Source) error {
	if src.Kind == "" {
		src.Kind = store.URLKind
	}
	id, err := s.nextID(sourcesCollection)
	if err != nil {
		return err
	}
	src.ID = id

	doc := *src
	doc.Statuses = nil
	err = s.exec(`INSERT MERGE(@doc, { _key: @key }) INTO sources`, map[string]interface{}{
		"doc": doc,
		"key": strconv.FormatInt(id, 10),
	})
	if err != nil {
		return fmt.Errorf("failed to create source record (section=%q): %w", src.Section, err)
	}
	return nil
}

func (s *Store) UpdateSource(src store.Source) error {
	_, ok, err := queryOne[string](s, `
		FOR s IN sources FILTER s.id == @id
		UPDATE s WITH { section: @section, location: @location, kind: @kind, tls_verify: @tls, cache: @cache } IN sources
		RETURN NEW._key`, map[string]interface{}{
		"id":       src.ID,
		"section":  src.Section,
		"location": src.Location,
		"kind":     src.Kind,
		"tls":      src.TLSVerify,
		"cache":    src.Cache,
	})
	if err != nil {
		return fmt.Errorf("failed to update source (id=%d): %w", src.ID, err)
	}
	if !ok {
		return &redteamerr.NotFoundError{Collection: "source", Key: strconv.FormatInt(src.ID, 10)}
	}
	return nil
}

func (s *Store) withHistory(src store.Source) (store.Source, error) {
	history, err := s.SourceHistory(src.ID)
	if err != nil {
		return src, err
	}
	src.Statuses = history
	return src, nil
}

func (s *Store) GetSource(id int64) (*store.Source, error) {
	src, ok, err := queryOne[store.Source](s, `FOR s IN sources FILTER s.id == @id RETURN s`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source (id=%d): %w", id, err)
	}
	if !ok {
		return nil, &redteamerr.NotFoundError{Collection: "source", Key: strconv.FormatInt(id, 10)}
	}
	src, err = s.withHistory(src)
	return &src, err
}

func (s *Store) GetSourceBySection(section string) (*store.Source, error) {
	src, ok, err := queryOne[store.Source](s, `FOR s IN sources FILTER s.section == @section RETURN s`, map[string]interface{}{"section": section})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source (section=%q): %w", section, err)
	}
	if !ok {
		return nil, &redteamerr.NotFoundError{Collection: "source", Key: section}
	}
	src, err = s.withHistory(src)
	return &src, err
}

func (s *Store) AllSources() ([]store.Source, error) {
	sources, err := queryAll[store.Source](s, `FOR s IN sources SORT s.id RETURN s`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all sources: %w", err)
	}
	for i := range sources {
		if sources[i], err = s.withHistory(sources[i]); err != nil {
			return nil, err
		}
	}
	return sources, nil
}

func (s *Store) SourceHistory(id int64) ([]store.SourceStatus, error) {
	statuses, err := queryAll[store.SourceStatus](s, `
		FOR st IN source_statuses FILTER st.source_id == @id
		SORT st.id
		RETURN st`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source history (id=%d): %w", id, err)
	}
	return statuses, nil
}

func (s *Store) AddStatus(sourceID int64, status store.SyncStatus, date time.Time) (*store.SourceStatus, error) {
	exists, err := s.exists(sourcesCollection, strconv.FormatInt(sourceID, 10))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &redteamerr.NotFoundError{Collection: "source", Key: strconv.FormatInt(sourceID, 10)}
	}

	id, err := s.nextID(statusesCollection)
	if err != nil {
		return nil, err
	}
	st := store.SourceStatus{
		ID:       id,
		SourceID: sourceID,
		Status:   status,
		Date:     date.UTC(),
	}
	if err := s.exec(`INSERT @doc INTO source_statuses`, map[string]interface{}{"doc": st}); err != nil {
		return nil, fmt.Errorf("failed to record status %q for source (id=%d): %w", status, sourceID, err)
	}
	return &st, nil
}

func (s *Store) DeleteSources() error {
	if err := s.deleteCollection(statusesCollection); err != nil {
		return err
	}
	return s.deleteCollection(sourcesCollection)
}
