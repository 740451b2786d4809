package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/judgegodwins/goban-server/api"
	"github.com/judgegodwins/goban-server/coordinator"
	"github.com/judgegodwins/goban-server/storage"
	"github.com/judgegodwins/goban-server/util"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []coordinator.Option

	// the directory syncer is stopped after server shutdown, once the last
	// room removals are queued
	stopSync := func() {}

	if config.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		defer rdb.Close()

		store := storage.NewRoomStore(rdb, config.RoomDirectoryTTL)

		// check redis connection status
		if err := store.Ping(ctx); err != nil {
			slog.Error("connecting to redis", "addr", config.RedisAddress, "error", err)
			os.Exit(1)
		}

		syncer := storage.NewSyncer(store)
		syncCtx, cancelSync := context.WithCancel(context.Background())
		syncDone := make(chan struct{})

		go func() {
			syncer.Run(syncCtx)
			close(syncDone)
		}()

		stopSync = func() {
			cancelSync()
			<-syncDone
		}

		opts = append(opts, coordinator.WithObserver(syncer))
		slog.Info("room directory enabled", "addr", config.RedisAddress, "ttl", config.RoomDirectoryTTL)
	}

	server := api.NewServer(config, opts...)

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	stopSync()
}

func setupLogger(levelStr string) {
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
