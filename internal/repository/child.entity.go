package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/pg"
)

type ChildEntity struct {
	pg.Model
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Name      string           `gorm:"column:name;not null"`
	BirthDate time.Time        `gorm:"column:birth_date;not null"`
	Gender    *string          `gorm:"column:gender"`
	Messages  []*MessageEntity `gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE"`
}

func (ChildEntity) TableName() string {
	return "children"
}

func toChildEntity(c *model.Child) *ChildEntity {
	if c == nil {
		return nil
	}
	return &ChildEntity{
		Model: pg.Model{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		UserID:    c.UserID,
		Name:      c.Name,
		BirthDate: c.BirthDate.UTC(),
		Gender:    c.Gender,
	}
}

func toChildModel(e *ChildEntity) *model.Child {
	if e == nil {
		return nil
	}
	return &model.Child{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		BirthDate: e.BirthDate,
		Gender:    e.Gender,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
