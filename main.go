package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DedS3t/monopoly-engine/app/controllers"
	"github.com/DedS3t/monopoly-engine/pkg/routes"
	"github.com/DedS3t/monopoly-engine/platform/cache"
	"github.com/DedS3t/monopoly-engine/platform/config"
	"github.com/DedS3t/monopoly-engine/platform/database"
	"github.com/DedS3t/monopoly-engine/platform/game"
	"github.com/DedS3t/monopoly-engine/platform/logging"
	"github.com/DedS3t/monopoly-engine/platform/queries"
	"github.com/DedS3t/monopoly-engine/platform/session"
	socket "github.com/DedS3t/monopoly-engine/platform/sockets"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	socketio "github.com/googollee/go-socket.io"
	log "github.com/sirupsen/logrus"
)

func main() {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	secret := []byte(cfg.JWTSecret)

	db := database.PostgreSQLConnection(cfg)
	defer db.Close()
	if err := database.CreateSchema(context.Background(), db); err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	pool := cache.CreateRedisPool(cfg.RedisURL)
	defer pool.Close()
	snapshots := &cache.SnapshotStore{Pool: pool, FinishedTTL: 24 * time.Hour}

	io, err := socketio.NewServer(nil)
	if err != nil {
		log.WithError(err).Fatal("socket.io server")
	}

	hub := session.NewHub(&queries.RoomLoader{Snapshots: snapshots, DB: db}, session.Options{
		Engine:    game.NewEngine(cfg.Rules),
		Persister: session.Persisters{snapshots, &queries.GameStatusStore{DB: db}},
		Notifier:  &socket.Broadcaster{IO: io},
		Results:   &queries.ProfileStore{DB: db},
	})

	sockets := socket.NewServer(io, hub, secret)
	go func() {
		if err := io.Serve(); err != nil {
			log.WithError(err).Error("socket.io stopped")
		}
	}()
	socketSrv := &http.Server{Addr: ":" + cfg.SocketPort, Handler: sockets.Handler(cfg.CORSOrigins)}
	go func() {
		if err := socketSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("socket listener")
		}
	}()

	auth := &controllers.AuthController{DB: db, Secret: secret, TokenTTL: 72 * time.Hour}
	games := &controllers.GameController{DB: db, Rooms: hub}

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
	}))
	routes.AuthRoutes(app, auth)
	routes.GameRoutes(app, games)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: secret,
	}))
	routes.UserRoutes(app, auth)
	routes.GameStateRoutes(app, games)

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.WithError(err).Error("http listener")
		}
	}()
	log.WithFields(log.Fields{"http": cfg.HTTPPort, "socket": cfg.SocketPort}).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := app.Shutdown(); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := socketSrv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("socket shutdown")
	}
	io.Close()
	hub.Shutdown()
}
