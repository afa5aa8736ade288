package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	xhttp "github.com/nimasrn/time-capsule/pkg/http"
)

type ChildService interface {
	Create(ctx context.Context, userID uuid.UUID, p model.ChildCreateRequest) (*model.Child, error)
	List(ctx context.Context, userID uuid.UUID) ([]*model.Child, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Child, error)
	Update(ctx context.Context, userID, id uuid.UUID, p model.ChildUpdateRequest) (*model.Child, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type ChildHandler struct {
	svc ChildService
}

func RegisterChildRoutes(g *xhttp.Group, h *ChildHandler, protect xhttp.MiddlewareFunc) {
	g.POST("/children", protect(h.CreateChild))
	g.GET("/children", protect(h.ListChildren))
	g.GET("/children/{id}", protect(h.GetChild))
	g.PUT("/children/{id}", protect(h.UpdateChild))
	g.DELETE("/children/{id}", protect(h.DeleteChild))
}

func NewChildHandler(childService ChildService) *ChildHandler {
	return &ChildHandler{svc: childService}
}

type childRequest struct {
	Name      *string `json:"name"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
}

func (h *ChildHandler) CreateChild(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}

	var req childRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, model.ErrInvalidChildName.Error())
		return
	}
	if req.BirthDate == nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, model.ErrInvalidBirthDate.Error())
		return
	}
	birth, err := parseBirthDate(*req.BirthDate)
	if err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	child, err := h.svc.Create(ctx, userID, model.ChildCreateRequest{
		Name:      *req.Name,
		BirthDate: birth,
		Gender:    req.Gender,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusCreated, child, "Child created successfully")
}

func (h *ChildHandler) ListChildren(ctx *xhttp.RequestCtx) {
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

func (h *ChildHandler) GetChild(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid child id")
		return
	}

	child, err := h.svc.Get(ctx, userID, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, child, "")
}

func (h *ChildHandler) UpdateChild(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid child id")
		return
	}

	var req childRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	p := model.ChildUpdateRequest{Name: req.Name, Gender: req.Gender}
	if req.BirthDate != nil {
		birth, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, err.Error())
			return
		}
		p.BirthDate = &birth
	}

	child, err := h.svc.Update(ctx, userID, id, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, child, "Child updated successfully")
}

func (h *ChildHandler) DeleteChild(ctx *xhttp.RequestCtx) {
	userID, ok := currentUser(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusUnauthorized, "access token required")
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, "invalid child id")
		return
	}

	if err := h.svc.Delete(ctx, userID, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, nil, "Child deleted successfully")
}
