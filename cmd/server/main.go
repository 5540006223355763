package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/cache"
	"github.com/veltara/school-season-booking/internal/config"
	"github.com/veltara/school-season-booking/internal/database"
	"github.com/veltara/school-season-booking/internal/handler"
	"github.com/veltara/school-season-booking/internal/middleware"
	"github.com/veltara/school-season-booking/internal/permission"
	"github.com/veltara/school-season-booking/internal/queue"
	"github.com/veltara/school-season-booking/internal/repository"
	"github.com/veltara/school-season-booking/internal/router"
	queue_publisher "github.com/veltara/school-season-booking/internal/service"
	"github.com/veltara/school-season-booking/internal/sessionctx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional. Without it the season cache falls back to the
	// in-process store and rate limiting is disabled.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadSeasonCacheConfig()

	var seasonCache cache.Store
	if rdb != nil {
		seasonCache = cache.NewRedis(rdb, cacheCfg.Prefix)
	} else {
		log.Printf("redis unavailable, using in-memory season cache")
		seasonCache = cache.NewMemory()
	}

	seasonStore := repository.NewSQLSeasonStore(db)
	seasons := repository.NewSeasonRepo(seasonStore, seasonCache, cacheCfg.TTL)
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	snapshots := repository.NewSnapshotRepo(db)
	roles := repository.NewRoleAssignmentRepo(db)

	catalog := permission.DefaultCatalog()
	resolver := permission.NewResolver(roles, catalog)
	contexts := sessionctx.New(sessions)

	events := queue_publisher.AMQPPublisher{}

	authH := handler.NewAuthHandler(cfg, users, roles, catalog, sessions)
	seasonH := handler.NewSeasonHandler(seasons, snapshots, events)
	snapshotH := handler.NewSnapshotHandler(snapshots, events)
	roleH := handler.NewRoleHandler(roles)
	contextH := handler.NewContextHandler(contexts)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterSeasons(e, seasonH, snapshotH, roleH, resolver, cfg.JWTSecret)
	router.RegisterContext(e, contextH, rdb, cfg.JWTSecret)

	go func() {
		if err := queue.StartLifecycleConsumer(); err != nil {
			log.Printf("lifecycle consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
