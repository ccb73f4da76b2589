package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/HolySSA/holyshit-game-server/internal/auth"
	"github.com/HolySSA/holyshit-game-server/internal/config"
	"github.com/HolySSA/holyshit-game-server/internal/data"
	"github.com/HolySSA/holyshit-game-server/internal/dispatch"
	"github.com/HolySSA/holyshit-game-server/internal/game"
	"github.com/HolySSA/holyshit-game-server/internal/handlers"
	"github.com/HolySSA/holyshit-game-server/internal/httpapi"
	"github.com/HolySSA/holyshit-game-server/internal/logger"
	"github.com/HolySSA/holyshit-game-server/internal/protocol"
	"github.com/HolySSA/holyshit-game-server/internal/server"
	"github.com/HolySSA/holyshit-game-server/internal/session"
	"github.com/HolySSA/holyshit-game-server/internal/stats"
)

func main() {
	cfg := config.Load()

	zlog := logger.New(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = zlog.Sync() }()

	staticData, err := data.Load(cfg.MonsterDataPath, zlog)
	if err != nil {
		zlog.Fatal("load static data", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zlog.Fatal("connect to redis", zap.Error(err))
	}

	var db *gorm.DB
	if cfg.PostgresDSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			zlog.Fatal("connect to postgres", zap.Error(err))
		}
	}
	statsService := stats.NewService(rdb, db, zlog)
	if err := statsService.Migrate(); err != nil {
		zlog.Fatal("migrate stats schema", zap.Error(err))
	}

	seq := protocol.NewSequence()
	sessions := session.NewRegistry(zlog)
	dispatcher := dispatch.New(sessions, seq, zlog)

	users := game.NewUserRegistry(zlog)
	rooms := game.NewRoomRegistry(
		game.PhaseDurations{Day: cfg.DayPhase, Evening: cfg.EveningPhase},
		dispatcher, statsService, seq, zlog,
	)

	gameHandlers := handlers.New(auth.NewRedisValidator(rdb, zlog), users, rooms, zlog)
	gameHandlers.Register(dispatcher)
	sessions.OnRemoved(gameHandlers.OnSessionRemoved)

	srv := server.New(cfg.ListenAddr, dispatcher, sessions, zlog)
	if err := srv.Start(); err != nil {
		zlog.Fatal("start game server", zap.Error(err))
	}

	opsSrv := &http.Server{Addr: cfg.OpsAddr, Handler: httpapi.SetupRoutes(rooms, sessions, staticData)}
	go func() {
		zlog.Info("ops server listening", zap.String("addr", cfg.OpsAddr))
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("ops server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	srv.Stop()
	_ = opsSrv.Close()
	_ = rdb.Close()
}
