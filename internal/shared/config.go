package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Media host: "http" posts to an external upload API, "s3" targets an
	// S3-compatible object store.
	MediaProvider string
	MediaBase     string
	MediaKey      string
	MediaRPS      int
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3UseSSL      bool

	AMQPURL      string
	AMQPExchange string

	JWTSecret string

	Workers  int
	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotelier?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		MediaProvider: env("MEDIA_PROVIDER", "http"),
		MediaBase:     env("MEDIA_BASE_URL", "https://media.hotelier.dev/v1"),
		MediaKey:      env("MEDIA_API_KEY", ""),
		MediaRPS:      atoi("MEDIA_RPS", 10),
		S3Endpoint:    env("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:   env("S3_ACCESS_KEY", ""),
		S3SecretKey:   env("S3_SECRET_KEY", ""),
		S3Bucket:      env("S3_BUCKET", "hotelier-images"),
		S3UseSSL:      env("S3_USE_SSL", "") == "true",
		AMQPURL:       env("AMQP_URL", ""),
		AMQPExchange:  env("AMQP_EXCHANGE", "hotelier.listings"),
		JWTSecret:     env("JWT_SECRET", ""),
		Workers:       atoi("REPRICE_WORKERS", 8),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	if c.MediaProvider == "http" && c.MediaKey == "" {
		log.Warn().Msg("MEDIA_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
