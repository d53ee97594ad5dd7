package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/chenzhe/smart-parking/internal/config"
	"github.com/chenzhe/smart-parking/internal/database"
	"github.com/chenzhe/smart-parking/internal/handler"
	"github.com/chenzhe/smart-parking/internal/middleware"
	"github.com/chenzhe/smart-parking/internal/queue"
	"github.com/chenzhe/smart-parking/internal/repository"
	"github.com/chenzhe/smart-parking/internal/router"
	"github.com/chenzhe/smart-parking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	snapshotRepo := repository.NewSnapshotRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	svc := service.NewReservationService(snapshotRepo)

	if cfg.ReaperEnabled {
		reaper := service.NewReaper(svc, cfg.ReaperInterval)
		reaper.Start()
		defer reaper.Stop()
		log.Printf("reservation reaper enabled, interval=%s", cfg.ReaperInterval)
	}

	// Audit-log consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, cache and rate limiting disabled")
	}

	e := echo.New()
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterParking(e,
		handler.NewStatusHandler(svc),
		handler.NewReservationHandler(svc),
		cfg.JWTSecret,
		config.LoadCacheConfig(),
		rdb,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
