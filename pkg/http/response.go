package xhttp

import (
	"encoding/json"

	"github.com/nimasrn/time-capsule/pkg/logger"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func JSON(ctx *RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("[xhttp] failed to encode response", "error", err)
		ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func SuccessJSON(ctx *RequestCtx, status int, data interface{}, message string) {
	JSON(ctx, status, Envelope{Success: true, Data: data, Message: message})
}

func ErrorJSON(ctx *RequestCtx, status int, msg string) {
	JSON(ctx, status, Envelope{Success: false, Error: msg})
}
