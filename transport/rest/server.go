package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type boardReader interface {
	Snapshot() entity.Snapshot
}

// Mirror is the read side of the Redis snapshot mirror, present only when it is enabled.
type Mirror interface {
	GetSnapshot(ctx context.Context) (*entity.Snapshot, error)
	TopScores(ctx context.Context, limit int64) ([]entity.ScoreEntry, error)
}

type Server struct {
	logger *slog.Logger

	board       boardReader
	mirror      Mirror
	allowOrigin string
}

// New - mirror may be nil.
func New(logger *slog.Logger, board boardReader, mirror Mirror, allowOrigin string) *Server {
	return &Server{
		logger:      logger.With("component", "rest"),
		board:       board,
		mirror:      mirror,
		allowOrigin: allowOrigin,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("GET /auth", that.handleAuth)
	mux.HandleFunc("GET /board", that.handleBoard)
	mux.HandleFunc("GET /leaderboard", that.handleLeaderboard)

	return that.cors(mux)
}

// Start - starts HTTP server and shuts it down when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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

func (that *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", that.allowOrigin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		header.Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		header.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
