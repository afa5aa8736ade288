package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/time-capsule/internal/config"
	"github.com/nimasrn/time-capsule/internal/delivery"
	"github.com/nimasrn/time-capsule/internal/queue"
	"github.com/nimasrn/time-capsule/internal/repository"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/nimasrn/time-capsule/pkg/pg"
	"github.com/nimasrn/time-capsule/pkg/prom"
	"github.com/nimasrn/time-capsule/pkg/redis"
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
	logger.Info("starting scheduler", "version", version, "commit", commit, "date", date)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	var redisAdap redis.RedisAdapter
	if needsRedis(cfg) {
		redisAdap, err = redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.Redis("scheduler"))
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
	}

	notifier, err := newNotifier(cfg, redisAdap)
	if err != nil {
		logger.Error("failed creating notifier", "channel", cfg.DeliveryChannel, "error", err)
		return
	}

	if cfg.AppDebug {
		host, _ := os.Hostname()
		if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Warn("failed registering metrics", "error", err)
		}
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	metrics := delivery.NewMetrics()
	sweepCfg := delivery.SweeperConfig{
		QueryTimeout:   cfg.SweepQueryTimeout,
		DeliverTimeout: cfg.SweepDeliverTimeout,
		UpdateTimeout:  cfg.SweepUpdateTimeout,
		Workers:        cfg.SweepWorkers,
		Metrics:        metrics,
	}
	schedCfg := delivery.SchedulerConfig{
		Interval: cfg.MessageCheckInterval(),
		Metrics:  metrics,
	}
	if cfg.SweepGuardEnabled {
		gc := delivery.DefaultGuardConfig()
		gc.TTL = cfg.SweepGuardTTL
		sweepCfg.Guard = delivery.NewRedisGuard(redisAdap, gc)
	}
	if cfg.SweepLockEnabled {
		schedCfg.Locker = delivery.NewRedisLocker(redisAdap, "", cfg.SweepLockTTL)
	}

	sweeper := delivery.NewSweeper(repository.NewMessageRepository(db), notifier, sweepCfg)
	scheduler := delivery.NewScheduler(sweeper, schedCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed starting scheduler", "error", err)
		return
	}
	logger.Info("scheduler started",
		"interval", scheduler.Interval().String(),
		"channel", notifier.Name(),
		"workers", cfg.SweepWorkers,
		"lock", cfg.SweepLockEnabled,
		"guard", cfg.SweepGuardEnabled)

	<-ctx.Done()
	logger.Info("shutting down scheduler")
	if err := scheduler.Stop(); err != nil {
		logger.Warn("scheduler stop", "error", err)
	}
	logger.Info("scheduler stopped", "stats", metrics.GetStats())
}

func needsRedis(cfg *config.Config) bool {
	return cfg.SweepLockEnabled || cfg.SweepGuardEnabled || cfg.DeliveryChannel == "stream"
}

func newNotifier(cfg *config.Config, adapter redis.RedisAdapter) (delivery.Notifier, error) {
	switch cfg.DeliveryChannel {
	case "", "log":
		return delivery.LogNotifier{}, nil
	case "webhook":
		return delivery.NewWebhookNotifier(delivery.WebhookConfig{
			URL:        cfg.DeliveryWebhookURL,
			Timeout:    cfg.DeliveryWebhookTimeout,
			MaxRetries: cfg.DeliveryWebhookRetries,
		})
	case "stream":
		q, err := queue.NewQueue(adapter, queue.QueueConfig{
			Name:   cfg.DeliveryStreamName,
			MaxLen: cfg.DeliveryStreamMaxLen,
		})
		if err != nil {
			return nil, err
		}
		return delivery.NewStreamNotifier(q), nil
	}
	return nil, fmt.Errorf("unknown delivery channel %q", cfg.DeliveryChannel)
}
