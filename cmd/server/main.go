package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ecovolt/ecovolt-backend/internal/config"
	"github.com/ecovolt/ecovolt-backend/internal/database"
	"github.com/ecovolt/ecovolt-backend/internal/geocode"
	"github.com/ecovolt/ecovolt-backend/internal/handler"
	"github.com/ecovolt/ecovolt-backend/internal/metrics"
	"github.com/ecovolt/ecovolt-backend/internal/middleware"
	"github.com/ecovolt/ecovolt-backend/internal/queue"
	"github.com/ecovolt/ecovolt-backend/internal/repository"
	"github.com/ecovolt/ecovolt-backend/internal/router"
	queue_publisher "github.com/ecovolt/ecovolt-backend/internal/service"
)

func main() {
	_ = godotenv.Load() // best-effort; real deployments set env directly

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.InitSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := database.SeedAdmin(ctx, db, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	metrics.Init()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stations := repository.NewStationRepo(db)
	deletions := repository.NewDeletionRequestRepo(db)

	// Moderation events go to RabbitMQ in the background; a broker outage
	// must not fail the admin's request.
	publish := func(ev queue.ModerationEvent) {
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			_ = queue_publisher.PublishModerationEvent(pctx, ev)
		}()
	}

	deps := router.Deps{
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Stations:  handler.NewStationHandler(stations, deletions, publish),
		Geo:       handler.NewGeoHandler(geocode.NewClient(cfg.NominatimURL)),
		Health:    handler.NewHealthHandler(db),
		JWTSecret: cfg.JWTSecret,
	}
	if rdb != nil {
		deps.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		deps.Cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, deps)

	// Consumer writes resolved moderation events to logs/moderation.log.
	go func() {
		if err := queue.StartModerationConsumer(); err != nil {
			log.Printf("moderation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
