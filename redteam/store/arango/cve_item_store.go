package arango

import (
	"fmt"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

func (s *Store) CveItemExists(id string) (bool, error) {
	exists, err := s.exists(cveItemsCollection, documentKey(id))
	if err != nil {
		return false, fmt.Errorf("failed to check for cve item %q: %w", id, err)
	}
	return exists, nil
}

func (s *Store) GetCveItem(id string) (*store.CveItem, error) {
	item, ok, err := queryOne[store.CveItem](s, `RETURN DOCUMENT("cve_items", @key)`, map[string]interface{}{"key": documentKey(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cve item %q: %w", id, err)
	}
	if !ok || item.CVEID == "" {
		return nil, &redteamerr.NotFoundError{Collection: "cve_item", Key: id}
	}
	return &item, nil
}

func (s *Store) CveItemCount() (int64, error) {
	count, _, err := queryOne[int64](s, `RETURN LENGTH(cve_items)`, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cve items: %w", err)
	}
	return count, nil
}

func (s *Store) UpsertCveItem(item store.CveItem) error {
	err := s.exec(`
		LET doc = MERGE(@doc, { _key: @key })
		UPSERT { _key: @key } INSERT doc REPLACE doc IN cve_items`, map[string]interface{}{
		"doc": item,
		"key": documentKey(item.CVEID),
	})
	if err != nil {
		return fmt.Errorf("failed to write cve item %q: %w", item.CVEID, err)
	}
	return nil
}

func (s *Store) DeleteCveItems() error {
	return s.deleteCollection(cveItemsCollection)
}
