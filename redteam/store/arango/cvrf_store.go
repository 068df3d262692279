package arango

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

type cvrfHeader struct {
	AdvisoryID         string     `json:"advisory_id"`
	Summary            string     `json:"summary"`
	Revision           int        `json:"revision"`
	RevisionDate       time.Time  `json:"revision_date"`
	InitialReleaseDate time.Time  `json:"initial_release_date"`
	AdvisoryDate       *time.Time `json:"advisory_date,omitempty"`
}

type factDocument struct {
	Kind  store.FactKind  `json:"kind"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type cvrfDocument struct {
	cvrfHeader
	Facts []factDocument `json:"facts"`
}

func (s *Store) CVRFExists(advisoryID string) (bool, error) {
	exists, err := s.exists(cvrfsCollection, documentKey(advisoryID))
	if err != nil {
		return false, fmt.Errorf("failed to check for cvrf %q: %w", advisoryID, err)
	}
	return exists, nil
}

func (s *Store) GetCVRF(advisoryID string) (*store.CVRF, error) {
	doc, ok, err := queryOne[cvrfDocument](s, `RETURN DOCUMENT("cvrfs", @key)`, map[string]interface{}{"key": documentKey(advisoryID)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cvrf %q: %w", advisoryID, err)
	}
	if !ok || doc.AdvisoryID == "" {
		return nil, &redteamerr.NotFoundError{Collection: "cvrf", Key: advisoryID}
	}

	c := store.CVRF{
		AdvisoryID:         doc.AdvisoryID,
		Summary:            doc.Summary,
		Revision:           doc.Revision,
		RevisionDate:       doc.RevisionDate,
		InitialReleaseDate: doc.InitialReleaseDate,
		AdvisoryDate:       doc.AdvisoryDate,
	}

	facts := make([]store.Fact, 0, len(doc.Facts))
	for _, f := range doc.Facts {
		facts = append(facts, store.Fact{Kind: f.Kind, Key: f.Key, Value: f.Value})
	}
	if err := store.ApplyFacts(&c, facts); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) AdvisoryIDs() ([]string, error) {
	ids, err := queryAll[string](s, `FOR c IN cvrfs FILTER c.advisory_id != null SORT c.advisory_id RETURN c.advisory_id`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch advisory ids: %w", err)
	}
	return ids, nil
}

func (s *Store) UpsertCVRF(c store.CVRF) error {
	header := cvrfHeader{
		AdvisoryID:         c.AdvisoryID,
		Summary:            c.Summary,
		Revision:           c.Revision,
		RevisionDate:       c.RevisionDate,
		InitialReleaseDate: c.InitialReleaseDate,
		AdvisoryDate:       c.AdvisoryDate,
	}
	err := s.exec(`
		UPSERT { _key: @key }
		INSERT MERGE(@doc, { _key: @key, fact_keys: [], facts: [] })
		UPDATE @doc IN cvrfs`, map[string]interface{}{
		"doc": header,
		"key": documentKey(c.AdvisoryID),
	})
	if err != nil {
		return fmt.Errorf("failed to write cvrf %q: %w", c.AdvisoryID, err)
	}
	return nil
}

func (s *Store) AddToSet(advisoryID string, fact store.Fact) (bool, error) {
	added, _, err := queryOne[bool](s, `
		UPSERT { _key: @key }
		INSERT { _key: @key, advisory_id: @id, fact_keys: [@factKey], facts: [@fact] }
		UPDATE POSITION(OLD.fact_keys || [], @factKey) ? {} : {
			fact_keys: PUSH(OLD.fact_keys || [], @factKey, true),
			facts: PUSH(OLD.facts || [], @fact)
		}
		IN cvrfs
		RETURN OLD == null || !POSITION(OLD.fact_keys || [], @factKey)`, map[string]interface{}{
		"key":     documentKey(advisoryID),
		"id":      advisoryID,
		"factKey": string(fact.Kind) + "/" + fact.Key,
		"fact":    factDocument{Kind: fact.Kind, Key: fact.Key, Value: fact.Value},
	})
	if err != nil {
		return false, fmt.Errorf("failed to add %s fact to cvrf %q: %w", fact.Kind, advisoryID, err)
	}
	return added, nil
}

func (s *Store) DeleteCVRFs() error {
	return s.deleteCollection(cvrfsCollection)
}
