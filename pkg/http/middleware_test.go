package xhttp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if sub, ok := s[token]; ok {
		return sub, nil
	}
	return "", errors.New("bad token")
}

func newCtx(method, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) Envelope {
	var env Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestBearerAuth(t *testing.T) {
	var seen interface{}
	next := func(ctx *RequestCtx) {
		seen = ctx.UserValue(UserIDKey)
		ctx.SetStatusCode(StatusOK)
	}
	h := BearerAuth(stubVerifier{"good": "user-1"})(next)

	t.Run("missing header", func(t *testing.T) {
		ctx := newCtx("GET", "/api/messages")
		h(ctx)
		assert.Equal(t, StatusUnauthorized, ctx.Response.StatusCode())
		assert.False(t, decode(t, ctx).Success)
	})

	t.Run("invalid token", func(t *testing.T) {
		ctx := newCtx("GET", "/api/messages")
		ctx.Request.Header.Set("Authorization", "Bearer nope")
		h(ctx)
		assert.Equal(t, StatusUnauthorized, ctx.Response.StatusCode())
		assert.Equal(t, "invalid or expired token", decode(t, ctx).Error)
	})

	t.Run("valid token", func(t *testing.T) {
		ctx := newCtx("GET", "/api/messages")
		ctx.Request.Header.Set("Authorization", "bearer good")
		h(ctx)
		assert.Equal(t, StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "user-1", seen)
	})
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(ctx *RequestCtx) { panic("boom") })
	ctx := newCtx("GET", "/")
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, StatusInternalServerError, ctx.Response.StatusCode())
}

func TestEngine_HandlerOrder(t *testing.T) {
	e := CreateServer()
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	e.Use(mark("first"))
	e.Use(mark("second"))
	e.GET("/ping", func(ctx *RequestCtx) { order = append(order, "handler") })

	h := e.Handler()
	h(newCtx("GET", "/ping"))
	assert.Equal(t, []string{"first", "second", "handler"}, order)

	ctx := newCtx("GET", "/missing")
	h(ctx)
	assert.Equal(t, StatusNotFound, ctx.Response.StatusCode())
}
