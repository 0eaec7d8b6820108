package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gridclash-backend/internal/config"
	"github.com/rocketscienceinc/gridclash-backend/internal/gridclash"
	"github.com/rocketscienceinc/gridclash-backend/internal/repository"
	"github.com/rocketscienceinc/gridclash-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gridclash-backend/internal/session"
	"github.com/rocketscienceinc/gridclash-backend/internal/usecase"
	"github.com/rocketscienceinc/gridclash-backend/transport/rest"
	"github.com/rocketscienceinc/gridclash-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		mirror       usecase.SnapshotMirror
		mirrorReader rest.Mirror
	)

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshotRepo := repository.NewSnapshotRepository(redisStorage, conf.Redis.KeyPrefix)
		mirror = snapshotRepo
		mirrorReader = snapshotRepo

		log.Info("Mirroring snapshots to redis", "addr", redisAddrString, "channel", snapshotRepo.EventsChannel())
	}

	engine := gridclash.New(conf.Game.MinPlayers, conf.Game.WinScore)
	registry := session.NewRegistry()
	synchronizer := usecase.NewSynchronizer(logger, engine, registry, mirror, conf.Game.RemoveOnDisconnect)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, synchronizer, mirrorReader, conf.CORS.AllowOrigin)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, synchronizer, websocket.Options{
			QueueSize:      conf.Session.QueueSize,
			OverflowPolicy: session.OverflowPolicy(conf.Session.OverflowPolicy),
			WriteTimeout:   conf.Session.WriteTimeout,
			PongWait:       conf.Session.PongWait,
			MaxMessageSize: conf.Session.MaxMessageSize,
			AllowedOrigin:  conf.CORS.AllowOrigin,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
