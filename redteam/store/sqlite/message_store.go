package sqlite

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

type messageStore struct {
	db *gorm.DB
}

func newMessageStore(db *gorm.DB) *messageStore {
	return &messageStore{
		db: db,
	}
}

func (s *messageStore) MessageExists(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&store.AdvisoryMessage{}).Where("message_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check for message %q: %w", id, err)
	}
	return count > 0, nil
}

func (s *messageStore) GetMessage(id string) (*store.AdvisoryMessage, error) {
	var m store.AdvisoryMessage
	result := s.db.Where("message_id = ?", id).First(&m)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, &redteamerr.NotFoundError{Collection: "advisory_message", Key: id}
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch message %q: %w", id, result.Error)
	}
	return &m, nil
}

func (s *messageStore) AllMessages() ([]store.AdvisoryMessage, error) {
	var messages []store.AdvisoryMessage
	if err := s.db.Order("message_date, message_id").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch all messages: %w", err)
	}
	return messages, nil
}

func (s *messageStore) MessagesForCVE(cveID string) ([]store.AdvisoryMessage, error) {
	var candidates []store.AdvisoryMessage
	err := s.db.Where("cves LIKE ?", `%"`+cveID+`"%`).Order("message_date, message_id").Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %q: %w", cveID, err)
	}

	var messages []store.AdvisoryMessage
	for _, m := range candidates {
		if m.HasCVE(cveID) {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (s *messageStore) AddMessage(m store.AdvisoryMessage) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if result.Error != nil {
		return false, fmt.Errorf("failed to write message %q: %w", m.MessageID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *messageStore) DeleteMessages() error {
	return deleteAll(s.db, store.AdvisoryMessage{}.TableName())
}
