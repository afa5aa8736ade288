package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/internal/services"
	xhttp "github.com/nimasrn/time-capsule/pkg/http"
	"github.com/nimasrn/time-capsule/pkg/logger"
)

var (
	errInvalidJSON = errors.New("invalid JSON body")
	errInvalidDate = errors.New("delivery date must be an RFC 3339 timestamp")
)

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// currentUser returns the subject stored by the bearer middleware.
func currentUser(ctx *xhttp.RequestCtx) (uuid.UUID, bool) {
	sub, ok := ctx.UserValue(xhttp.UserIDKey).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func pathID(ctx *xhttp.RequestCtx) (uuid.UUID, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := uuid.Parse(raw)
	return id, err == nil
}

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		xhttp.ErrorJSON(ctx, xhttp.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrNotFound):
		xhttp.ErrorJSON(ctx, xhttp.StatusNotFound, "Message not found")
	case errors.Is(err, services.ErrChildNotFound):
		xhttp.ErrorJSON(ctx, xhttp.StatusNotFound, "Child not found")
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		xhttp.ErrorJSON(ctx, xhttp.StatusInternalServerError, "internal server error")
	}
}

func parseDeliveryDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

func parseBirthDate(s string) (time.Time, error) {
	t, err := time.Parse(model.BirthDateLayout, s)
	if err != nil {
		return time.Time{}, model.ErrInvalidBirthDate
	}
	return t, nil
}
