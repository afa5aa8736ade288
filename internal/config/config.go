package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/pkg/errors"
)

const DefaultMessageCheckInterval = 60 * time.Second

var config *Config

// Config holds every configuration value of the time-capsule processes.
// Nothing else should read env, ini or any other config source directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=time_capsule"`
	AppDebug            bool   `env:"APP_DEBUG,default=true"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR,default=:9100"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr            string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpServerReadTimeout     int    `env:"HTTP_SERVER_READ_TIMEOUT,default=10"`
	HttpServerWriteTimeout    int    `env:"HTTP_SERVER_WRITE_TIMEOUT,default=10"`
	HttpServerReadBufferSize  int    `env:"HTTP_SERVER_READ_BUFFER_SIZE,default=8192"`
	HttpServerWriteBufferSize int    `env:"HTTP_SERVER_WRITE_BUFFER_SIZE,default=8192"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST,default=localhost"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST,default=localhost"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE,default=disable"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=tc:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=time_capsule"`

	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`

	// Raw milliseconds; see MessageCheckInterval.
	MessageCheckIntervalMs string `env:"MESSAGE_CHECK_INTERVAL"`

	SweepQueryTimeout   time.Duration `env:"SWEEP_QUERY_TIMEOUT,default=5s"`
	SweepDeliverTimeout time.Duration `env:"SWEEP_DELIVER_TIMEOUT,default=5s"`
	SweepUpdateTimeout  time.Duration `env:"SWEEP_UPDATE_TIMEOUT,default=5s"`
	SweepWorkers        int           `env:"SWEEP_WORKERS,default=1"`
	SweepLockEnabled    bool          `env:"SWEEP_LOCK_ENABLED,default=false"`
	SweepLockTTL        time.Duration `env:"SWEEP_LOCK_TTL,default=2m"`
	SweepGuardEnabled   bool          `env:"SWEEP_GUARD_ENABLED,default=false"`
	SweepGuardTTL       time.Duration `env:"SWEEP_GUARD_TTL,default=24h"`

	DeliveryChannel        string        `env:"DELIVERY_CHANNEL,default=log"`
	DeliveryWebhookURL     string        `env:"DELIVERY_WEBHOOK_URL"`
	DeliveryWebhookRetries int           `env:"DELIVERY_WEBHOOK_RETRIES,default=3"`
	DeliveryWebhookTimeout time.Duration `env:"DELIVERY_WEBHOOK_TIMEOUT,default=3s"`
	DeliveryStreamName     string        `env:"DELIVERY_STREAM_NAME,default=deliveries"`
	DeliveryStreamMaxLen   int64         `env:"DELIVERY_STREAM_MAX_LEN,default=100000"`
}

// MessageCheckInterval is the scheduler tick. Unset, unparsable or
// non-positive values fall back to one minute.
func (c *Config) MessageCheckInterval() time.Duration {
	raw := strings.TrimSpace(c.MessageCheckIntervalMs)
	if raw == "" {
		return DefaultMessageCheckInterval
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return DefaultMessageCheckInterval
	}
	return time.Duration(ms) * time.Millisecond
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	c := &Config{}
	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Config")
	}

	config = c
	return nil
}

// EnvPath extracts the value of a --env=path argument.
func EnvPath(args []string) string {
	for _, arg := range args {
		if strings.HasPrefix(arg, "--env=") {
			return strings.TrimPrefix(arg, "--env=")
		}
	}
	return ""
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
