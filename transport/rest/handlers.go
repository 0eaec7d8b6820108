package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100

	sourceMirror = "mirror"
)

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

// handleAuth - issues a player id cookie unless the client already has one.
func (that *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(entity.IdentityCookie); err == nil && cookie.Value != "" {
		that.writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  entity.IdentityCookie,
		Value: uuid.NewString(),
		Path:  "/",
	})

	that.writeJSON(w, http.StatusCreated, struct{}{})
}

// handleBoard - the live board, or with ?source=mirror the last snapshot stored in Redis.
func (that *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleBoard")

	switch r.URL.Query().Get("source") {
	case "":
		that.writeJSON(w, http.StatusOK, that.board.Snapshot())
	case sourceMirror:
		if that.mirror == nil {
			http.Error(w, "mirror is disabled", http.StatusNotFound)
			return
		}

		snapshot, err := that.mirror.GetSnapshot(r.Context())
		if errors.Is(err, apperror.ErrSnapshotNotFound) {
			http.Error(w, "no snapshot mirrored yet", http.StatusNotFound)
			return
		}

		if err != nil {
			log.Error("failed to get mirrored snapshot", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		that.writeJSON(w, http.StatusOK, snapshot)
	default:
		http.Error(w, "unknown source", http.StatusBadRequest)
	}
}

func (that *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleLeaderboard")

	if that.mirror == nil {
		http.Error(w, "leaderboard is disabled", http.StatusNotFound)
		return
	}

	limit := int64(defaultLeaderboardLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}

		limit = min(parsed, maxLeaderboardLimit)
	}

	scores, err := that.mirror.TopScores(r.Context(), limit)
	if err != nil {
		log.Error("failed to get scores", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, scores)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
