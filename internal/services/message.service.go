package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/internal/repository"
)

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.Message, error)
	List(ctx context.Context, f model.MessageFilter) ([]*model.Message, error)
	Update(ctx context.Context, id, userID uuid.UUID, p model.MessageUpdateRequest) (*model.Message, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type ChildLookup interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.Child, error)
}

type MessageService struct {
	messageRepo MessageRepository
	children    ChildLookup
}

func NewMessageService(messageRepo MessageRepository, children ChildLookup) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		children:    children,
	}
}

func (s *MessageService) Create(ctx context.Context, userID uuid.UUID, p model.MessageCreateRequest) (*model.Message, error) {
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := s.ensureChild(ctx, p.ChildID, userID); err != nil {
		return nil, err
	}

	m := &model.Message{
		UserID:       userID,
		ChildID:      p.ChildID,
		Title:        strings.TrimSpace(p.Title),
		Content:      p.Content,
		Type:         p.Type,
		MediaURL:     p.MediaURL,
		AIPrompt:     p.AIPrompt,
		DeliveryDate: p.DeliveryDate.UTC(),
	}

	created, err := s.messageRepo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return created, nil
}

func (s *MessageService) List(ctx context.Context, userID uuid.UUID) ([]*model.Message, error) {
	return s.messageRepo.List(ctx, model.MessageFilter{UserID: userID})
}

func (s *MessageService) ListByChild(ctx context.Context, userID, childID uuid.UUID) ([]*model.Message, error) {
	if err := s.ensureChild(ctx, childID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.List(ctx, model.MessageFilter{UserID: userID, ChildID: &childID})
}

func (s *MessageService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Message, error) {
	m, err := s.messageRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapMessageErr(err)
	}
	return m, nil
}

func (s *MessageService) Update(ctx context.Context, userID, id uuid.UUID, p model.MessageUpdateRequest) (*model.Message, error) {
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	if p.Empty() {
		return s.Get(ctx, userID, id)
	}

	m, err := s.messageRepo.Update(ctx, id, userID, p)
	if err != nil {
		return nil, mapMessageErr(err)
	}
	return m, nil
}

func (s *MessageService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return mapMessageErr(s.messageRepo.Delete(ctx, id, userID))
}

func (s *MessageService) ensureChild(ctx context.Context, childID, userID uuid.UUID) error {
	if _, err := s.children.GetByID(ctx, childID, userID); err != nil {
		if errors.Is(err, repository.ErrChildNotFound) {
			return ErrChildNotFound
		}
		return fmt.Errorf("lookup child: %w", err)
	}
	return nil
}

func mapMessageErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
