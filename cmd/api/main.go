package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/time-capsule/internal/auth"
	"github.com/nimasrn/time-capsule/internal/config"
	"github.com/nimasrn/time-capsule/internal/handlers"
	"github.com/nimasrn/time-capsule/internal/repository"
	"github.com/nimasrn/time-capsule/internal/services"
	xhttp "github.com/nimasrn/time-capsule/pkg/http"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/nimasrn/time-capsule/pkg/pg"
	"github.com/nimasrn/time-capsule/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	if err := config.Load(config.EnvPath(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret)
	if err != nil {
		logger.Error("failed creating token verifier", "error", err)
		return
	}

	childRepo := repository.NewChildRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	childService := services.NewChildService(childRepo)
	messageService := services.NewMessageService(messageRepo, childRepo)
	healthService := services.NewHealthService(db)

	opts := xhttp.DefaultServerOption
	opts.ReadTimeout = time.Duration(cfg.HttpServerReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeout) * time.Second
	opts.ReadBufferSize = cfg.HttpServerReadBufferSize
	opts.WriteBufferSize = cfg.HttpServerWriteBufferSize

	s := xhttp.NewServer(opts)
	s.Use(xhttp.RecoverMiddleware)
	if cfg.AppDebug {
		host, _ := os.Hostname()
		if err := prom.CreateHTTP(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Warn("failed registering metrics", "error", err)
		}
		s.Use(prom.Middleware)
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))

	protect := xhttp.BearerAuth(verifier)
	g := s.Router.Group("/api")
	handlers.RegisterHealthRoutes(s.Router, g, handlers.NewHealthHandler(healthService, version))
	handlers.RegisterChildRoutes(g, handlers.NewChildHandler(childService), protect)
	handlers.RegisterMessageRoutes(g, handlers.NewMessageHandler(messageService), protect)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Serve(ctx, cfg.HttpListenAddr); err != nil {
		logger.Error("error in running http-server", "error", err)
	}
	logger.Info("api stopped")
}
