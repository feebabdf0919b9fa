package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotelier/internal/adapters/events"
	server "hotelier/internal/adapters/http_server"
	"hotelier/internal/adapters/media"
	"hotelier/internal/adapters/observability"
	redisad "hotelier/internal/adapters/redis"
	"hotelier/internal/app"
	"hotelier/internal/domain"
	"hotelier/internal/shared"
	mysqlrepo "hotelier/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// media host
	var host domain.MediaHost
	switch cfg.MediaProvider {
	case "s3":
		host, err = media.NewS3Store(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
	default:
		host, err = media.New(cfg.MediaBase, cfg.MediaKey, cfg.MediaRPS)
	}
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.MediaProvider).Msg("media host init failed")
	}

	// events (optional)
	var pub domain.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := events.New(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp init failed")
		}
		pub = p
	}

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	svc := app.NewHotelService(repo, host, cache, pub, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Svc: svc}, []byte(cfg.JWTSecret))

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
