package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a message does not exist.
	ErrNotFound = errors.New("message not found")
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)
	entity.IsDelivered = false

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.Message, error) {
	var entity MessageEntity
	err := r.Read(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toMessageModel(&entity), nil
}

func (r *MessageRepository) List(ctx context.Context, f model.MessageFilter) ([]*model.Message, error) {
	q := r.Read(ctx).Model(&MessageEntity{}).Where("user_id = ?", f.UserID)

	if f.ChildID != nil {
		q = q.Where("child_id = ?", *f.ChildID)
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*MessageEntity
	if err := q.Order("delivery_date ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, err
	}

	return toMessageModels(entities), nil
}

func (r *MessageRepository) Update(ctx context.Context, id, userID uuid.UUID, p model.MessageUpdateRequest) (*model.Message, error) {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Content != nil {
		updates["content"] = *p.Content
	}
	if p.Type != nil {
		updates["type"] = string(*p.Type)
	}
	if p.DeliveryDate != nil {
		updates["delivery_date"] = p.DeliveryDate.UTC()
	}
	if p.MediaURL != nil {
		updates["media_url"] = *p.MediaURL
	}
	if p.AIPrompt != nil {
		updates["ai_prompt"] = *p.AIPrompt
	}

	res := r.Write(ctx).Model(&MessageEntity{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id, userID)
}

func (r *MessageRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := r.Write(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&MessageEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDue returns every undelivered message whose delivery date is at or before now.
// No ordering is requested from the store.
func (r *MessageRepository) FindDue(ctx context.Context, now time.Time) ([]*model.Message, error) {
	var entities []*MessageEntity
	err := r.Read(ctx).
		Where("is_delivered = ? AND delivery_date <= ?", false, now.UTC()).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}

// MarkDelivered sets is_delivered for one message. Calling it again on a
// delivered message is a no-op that still succeeds.
func (r *MessageRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return r.Write(ctx).Model(&MessageEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_delivered": true,
			"updated_at":   time.Now().UTC(),
		}).Error
}
