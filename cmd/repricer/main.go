// Bulk price adjustment: applies a multiplicative factor to every listing of
// an owner, one conditional update per listing through the same pipeline the
// API uses.
package main

import (
	"context"
	"database/sql"
	"flag"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotelier/internal/adapters/observability"
	redisad "hotelier/internal/adapters/redis"
	"hotelier/internal/app"
	"hotelier/internal/shared"
	mysqlrepo "hotelier/internal/storage/mysql"
)

func main() {
	owner := flag.String("owner", "", "owner account ID whose listings are repriced")
	factor := flag.Float64("factor", 1.0, "price multiplier, e.g. 1.05 for +5%")
	limit := flag.Int("limit", 500, "max listings to touch")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *owner == "" {
		log.Fatal().Msg("-owner is required")
	}
	if *factor <= 0 {
		log.Fatal().Float64("factor", *factor).Msg("-factor must be positive")
	}

	log.Info().
		Str("owner", *owner).
		Float64("factor", *factor).
		Int("workers", cfg.Workers).
		Msg("repricer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	// no media host needed: repricing uploads nothing
	svc := app.NewHotelService(repo, nil, cache, nil, cfg.CacheTTL)

	hotels, err := svc.List(ctx, *owner, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("list listings failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	start := time.Now()

	for _, h := range hotels {
		h := h

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			updated, err := svc.AdjustPrice(ctx, h.ID, *owner, *factor)
			if err != nil {
				log.Warn().Str("id", h.ID).Err(err).Msg("reprice failed")
				return
			}
			log.Info().
				Str("id", h.ID).
				Float64("old", h.PricePerNight).
				Float64("new", updated.PricePerNight).
				Msg("reprice ok")
		}()
	}

	wg.Wait()
	log.Info().Int("listings", len(hotels)).Dur("took", time.Since(start)).Msg("repricing completed")
}
