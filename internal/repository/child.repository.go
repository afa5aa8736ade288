package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/pg"
	"gorm.io/gorm"
)

var ErrChildNotFound = errors.New("child not found")

type ChildRepository struct {
	*pg.DB
}

func NewChildRepository(db *pg.DB) *ChildRepository {
	return &ChildRepository{db}
}

func (r *ChildRepository) Create(ctx context.Context, c *model.Child) (*model.Child, error) {
	entity := toChildEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toChildModel(entity), nil
}

func (r *ChildRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.Child, error) {
	var entity ChildEntity
	err := r.Read(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChildNotFound
	}
	if err != nil {
		return nil, err
	}
	return toChildModel(&entity), nil
}

// ListByUser returns the user's children, newest first.
func (r *ChildRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Child, error) {
	var entities []*ChildEntity
	err := r.Read(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	children := make([]*model.Child, len(entities))
	for i, e := range entities {
		children[i] = toChildModel(e)
	}
	return children, nil
}

func (r *ChildRepository) Update(ctx context.Context, id, userID uuid.UUID, p model.ChildUpdateRequest) (*model.Child, error) {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if p.Name != nil {
		updates["name"] = strings.TrimSpace(*p.Name)
	}
	if p.BirthDate != nil {
		updates["birth_date"] = p.BirthDate.UTC()
	}
	if p.Gender != nil {
		updates["gender"] = strings.ToLower(*p.Gender)
	}

	res := r.Write(ctx).Model(&ChildEntity{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrChildNotFound
	}
	return r.GetByID(ctx, id, userID)
}

// Delete removes the child together with every message addressed to it.
func (r *ChildRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Where("id = ? AND user_id = ?", id, userID).
			Delete(&ChildEntity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChildNotFound
		}
		return r.Write(ctx).
			Where("child_id = ? AND user_id = ?", id, userID).
			Delete(&MessageEntity{}).Error
	})
}
