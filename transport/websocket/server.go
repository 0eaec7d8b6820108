package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridclash-backend/internal/session"
)

const (
	connectPath     = "/connect"
	shutdownTimeout = 5 * time.Second
)

type synchronizer interface {
	Connect(ctx context.Context, sess *session.Session) error
	HandleMove(ctx context.Context, sess *session.Session, raw []byte) error
	Disconnect(ctx context.Context, sess *session.Session)
}

type Options struct {
	QueueSize      int
	OverflowPolicy session.OverflowPolicy
	WriteTimeout   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	// AllowedOrigin is matched against the Origin header; "*" accepts any.
	AllowedOrigin string
}

func (that Options) pingPeriod() time.Duration {
	return that.PongWait * 9 / 10
}

type Server struct {
	logger  *slog.Logger
	sync    synchronizer
	options Options

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, sync synchronizer, options Options) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		sync:    sync,
		options: options,
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(connectPath, that.handleConnect)

	return mux
}

// Start - starts WebSocket server and shuts it down when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		// connections stop their pumps once the application context is canceled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	}
}

func (that *Server) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")

	return origin == "" || that.options.AllowedOrigin == "*" || origin == that.options.AllowedOrigin
}
