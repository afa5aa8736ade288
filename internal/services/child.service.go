package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/internal/repository"
)

type ChildRepository interface {
	Create(ctx context.Context, c *model.Child) (*model.Child, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.Child, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Child, error)
	Update(ctx context.Context, id, userID uuid.UUID, p model.ChildUpdateRequest) (*model.Child, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type ChildService struct {
	repo ChildRepository
	now  func() time.Time
}

func NewChildService(repo ChildRepository) *ChildService {
	return &ChildService{repo: repo, now: time.Now}
}

func (s *ChildService) Create(ctx context.Context, userID uuid.UUID, p model.ChildCreateRequest) (*model.Child, error) {
	if err := p.Validate(s.now()); err != nil {
		return nil, invalid(err)
	}

	c := &model.Child{
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		BirthDate: p.BirthDate,
	}
	if p.Gender != nil {
		g := strings.ToLower(*p.Gender)
		c.Gender = &g
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}
	return created, nil
}

func (s *ChildService) List(ctx context.Context, userID uuid.UUID) ([]*model.Child, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ChildService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Child, error) {
	c, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapChildErr(err)
	}
	return c, nil
}

func (s *ChildService) Update(ctx context.Context, userID, id uuid.UUID, p model.ChildUpdateRequest) (*model.Child, error) {
	if err := p.Validate(s.now()); err != nil {
		return nil, invalid(err)
	}
	c, err := s.repo.Update(ctx, id, userID, p)
	if err != nil {
		return nil, mapChildErr(err)
	}
	return c, nil
}

func (s *ChildService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return mapChildErr(s.repo.Delete(ctx, id, userID))
}

func mapChildErr(err error) error {
	if errors.Is(err, repository.ErrChildNotFound) {
		return ErrChildNotFound
	}
	return err
}
