package arango

import (
	"fmt"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

func (s *Store) MessageExists(id string) (bool, error) {
	exists, err := s.exists(messagesCollection, documentKey(id))
	if err != nil {
		return false, fmt.Errorf("failed to check for message %q: %w", id, err)
	}
	return exists, nil
}

func (s *Store) GetMessage(id string) (*store.AdvisoryMessage, error) {
	m, ok, err := queryOne[store.AdvisoryMessage](s, `RETURN DOCUMENT("advisory_messages", @key)`, map[string]interface{}{"key": documentKey(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %q: %w", id, err)
	}
	if !ok || m.MessageID == "" {
		return nil, &redteamerr.NotFoundError{Collection: "advisory_message", Key: id}
	}
	return &m, nil
}

func (s *Store) AllMessages() ([]store.AdvisoryMessage, error) {
	messages, err := queryAll[store.AdvisoryMessage](s, `FOR m IN advisory_messages SORT m.message_date, m.message_id RETURN m`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all messages: %w", err)
	}
	return messages, nil
}

func (s *Store) MessagesForCVE(cveID string) ([]store.AdvisoryMessage, error) {
	messages, err := queryAll[store.AdvisoryMessage](s, `
		FOR m IN advisory_messages FILTER @cve IN m.cves
		SORT m.message_date, m.message_id
		RETURN m`, map[string]interface{}{"cve": cveID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %q: %w", cveID, err)
	}
	return messages, nil
}

func (s *Store) AddMessage(m store.AdvisoryMessage) (bool, error) {
	_, added, err := queryOne[string](s, `
		FOR absent IN (DOCUMENT("advisory_messages", @key) == null ? [true] : [])
		INSERT MERGE(@doc, { _key: @key }) INTO advisory_messages
		RETURN NEW._key`, map[string]interface{}{
		"doc": m,
		"key": documentKey(m.MessageID),
	})
	if err != nil {
		return false, fmt.Errorf("failed to write message %q: %w", m.MessageID, err)
	}
	return added, nil
}

func (s *Store) DeleteMessages() error {
	return s.deleteCollection(messagesCollection)
}
