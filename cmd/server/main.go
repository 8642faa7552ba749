package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/auth"
	"github.com/amtorres/mindmap-api/internal/config"
	"github.com/amtorres/mindmap-api/internal/database"
	"github.com/amtorres/mindmap-api/internal/handler"
	"github.com/amtorres/mindmap-api/internal/queue"
	"github.com/amtorres/mindmap-api/internal/repository"
	"github.com/amtorres/mindmap-api/internal/router"
	qp "github.com/amtorres/mindmap-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Fresh signing key per process: every previously issued token is
	// invalid after a restart.
	key, err := auth.NewSigningKey()
	if err != nil {
		log.Fatalf("generate signing key: %v", err)
	}
	codec := auth.NewTokenCodec(key)

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	maps := repository.NewMindMapRepo(db)

	authH := handler.NewAuthHandler(users, codec)
	mapH := handler.NewMindMapHandler(maps)
	mapH.Publish = func(ctx context.Context, ev queue.MapActivityEvent) {
		_ = qp.PublishMapActivity(ctx, ev)
	}
	userH := handler.NewUserHandler(users)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache disabled")
	}

	go queue.StartActivityConsumer()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, codec, authH, mapH, userH, config.LoadCacheConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
