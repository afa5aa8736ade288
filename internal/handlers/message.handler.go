package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	xhttp "github.com/nimasrn/time-capsule/pkg/http"
)

type MessageService interface {
	Create(ctx context.Context, userID uuid.UUID, p model.MessageCreateRequest) (*model.Message, error)
	List(ctx context.Context, userID uuid.UUID) ([]*model.Message, error)
	ListByChild(ctx context.Context, userID, childID uuid.UUID) ([]*model.Message, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Message, error)
	Update(ctx context.Context, userID, id uuid.UUID, p model.MessageUpdateRequest) (*model.Message, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type MessageHandler struct {
	svc MessageService
}

// RegisterMessageRoutes mounts the message endpoints behind protect.
func RegisterMessageRoutes(g *xhttp.Group, h *MessageHandler, protect xhttp.MiddlewareFunc) {
	g.POST("/messages", protect(h.CreateMessage))
	g.GET("/messages", protect(h.ListMessages))
	g.GET("/messages/{id}", protect(h.GetMessage))
	g.PUT("/messages/{id}", protect(h.UpdateMessage))
	g.DELETE("/messages/{id}", protect(h.DeleteMessage))
	g.GET("/children/{id}/messages", protect(h.ListChildMessages))
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{svc: messageService}
}

type createMessageRequest struct {
	ChildID      string  `json:"child_id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Type         string  `json:"type"`
	DeliveryDate string  `json:"delivery_date"`
	MediaURL     *string `json:"media_url"`
	AIPrompt     *string `json:"ai_prompt"`
}

// is_delivered is deliberately absent: only the sweep sets it.
type updateMessageRequest struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Type         *string `json:"type"`
	DeliveryDate *string `json:"delivery_date"`
	MediaURL     *string `json:"media_url"`
	AIPrompt     *string `json:"ai_prompt"`
}

func (h *MessageHandler) CreateMessage(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}

	var req createMessageRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, model.ErrChildIDRequired.Error())
		return
	}
	if req.DeliveryDate == "" {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, model.ErrDeliveryDateMissing.Error())
		return
	}
	deliveryDate, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.svc.Create(ctx, userID, model.MessageCreateRequest{
		ChildID:      childID,
		Title:        req.Title,
		Content:      req.Content,
		Type:         model.MessageType(req.Type),
		DeliveryDate: deliveryDate,
		MediaURL:     req.MediaURL,
		AIPrompt:     req.AIPrompt,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusCreated, msg, "Message created successfully")
}

func (h *MessageHandler) ListMessages(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}

	items, err := h.svc.List(ctx, userID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, nonNil(items), "")
}

func (h *MessageHandler) ListChildMessages(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	childID, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid child id")
		return
	}

	items, err := h.svc.ListByChild(ctx, userID, childID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, nonNil(items), "")
}

func (h *MessageHandler) GetMessage(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.svc.Get(ctx, userID, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, msg, "")
}

func (h *MessageHandler) UpdateMessage(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid message id")
		return
	}

	var req updateMessageRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	p := model.MessageUpdateRequest{
		Title:    req.Title,
		Content:  req.Content,
		MediaURL: req.MediaURL,
		AIPrompt: req.AIPrompt,
	}
	if req.Type != nil {
		t := model.MessageType(*req.Type)
		p.Type = &t
	}
	if req.DeliveryDate != nil {
		d, err := parseDeliveryDate(*req.DeliveryDate)
		if err != nil {
			xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
			return
		}
		p.DeliveryDate = &d
	}

	msg, err := h.svc.Update(ctx, userID, id, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, msg, "Message updated successfully")
}

func (h *MessageHandler) DeleteMessage(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid message id")
		return
	}

	if err := h.svc.Delete(ctx, userID, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, nil, "Message deleted successfully")
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
