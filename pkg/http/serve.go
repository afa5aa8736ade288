package xhttp

import (
	"context"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/valyala/fasthttp"
)

type Server = fasthttp.Server

type ServerOption struct {
	Name string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// keep idle connections short, otherwise we run into too many open files
	IdleTimeout time.Duration

	ReadBufferSize     int
	WriteBufferSize    int
	MaxRequestBodySize int
	Concurrency        int
	MaxConnsPerIP      int

	Logger logger.Logger
}

var DefaultServerOption = ServerOption{
	Name:               "time-capsule",
	ReadTimeout:        2500 * time.Millisecond,
	WriteTimeout:       2500 * time.Millisecond,
	IdleTimeout:        10 * time.Second,
	ReadBufferSize:     4 * 1024,
	WriteBufferSize:    4 * 1024,
	MaxRequestBodySize: 4 * 1024 * 1024,
	Concurrency:        30_000,
	MaxConnsPerIP:      10_000,
}

type Engine struct {
	*Router
	*Server
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	lg := options.Logger
	if lg == nil {
		lg = logger.GetLogger()
	}
	return &fasthttp.Server{
		Handler:               NotFoundHandler,
		Name:                  options.Name,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		IdleTimeout:           options.IdleTimeout,
		ReadBufferSize:        options.ReadBufferSize,
		WriteBufferSize:       options.WriteBufferSize,
		MaxRequestBodySize:    options.MaxRequestBodySize,
		Concurrency:           options.Concurrency,
		MaxConnsPerIP:         options.MaxConnsPerIP,
		TCPKeepalive:          true,
		CloseOnShutdown:       true,
		NoDefaultServerHeader: true,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Warn("[xhttp] request error", "error", err)
		},
		Logger: lg,
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption)
}

// Handler builds the final request handler: routes wrapped in the registered
// middleware, first registered runs outermost.
func (e *Engine) Handler() RequestHandler {
	h := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for _, m := range middle {
		h = m(h)
	}
	return h
}

func (e *Engine) DoRouting() {
	for method, routes := range e.Router.List() {
		for _, r := range routes {
			logger.Debug("[xhttp] route registered", "method", method, "path", r)
		}
	}
	for i, m := range e.middle {
		logger.Debug("[xhttp] middleware registered", "order", i+1, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = e.Handler()
}

func (e *Engine) ListenAndServe(addr string) error {
	e.DoRouting()
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (e *Engine) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.ListenAndServe(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		e.Shutdown()
		return <-errCh
	}
}

// Use adds middleware to the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down")
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
