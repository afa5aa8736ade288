package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/pg"
)

type MessageEntity struct {
	pg.Model
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ChildID      uuid.UUID `gorm:"column:child_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;not null"`
	Content      string    `gorm:"column:content;not null"`
	Type         string    `gorm:"column:type;not null"`
	MediaURL     *string   `gorm:"column:media_url"`
	AIPrompt     *string   `gorm:"column:ai_prompt"`
	DeliveryDate time.Time `gorm:"column:delivery_date;not null;index"`
	IsDelivered  bool      `gorm:"column:is_delivered;not null;default:false"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		UserID:       m.UserID,
		ChildID:      m.ChildID,
		Title:        m.Title,
		Content:      m.Content,
		Type:         string(m.Type),
		MediaURL:     m.MediaURL,
		AIPrompt:     m.AIPrompt,
		DeliveryDate: m.DeliveryDate.UTC(),
		IsDelivered:  m.IsDelivered,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		ID:           e.ID,
		UserID:       e.UserID,
		ChildID:      e.ChildID,
		Title:        e.Title,
		Content:      e.Content,
		Type:         model.MessageType(e.Type),
		MediaURL:     e.MediaURL,
		AIPrompt:     e.AIPrompt,
		DeliveryDate: e.DeliveryDate,
		IsDelivered:  e.IsDelivered,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
