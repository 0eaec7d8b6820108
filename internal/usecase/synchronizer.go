package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
	"github.com/rocketscienceinc/gridclash-backend/internal/gridclash"
	"github.com/rocketscienceinc/gridclash-backend/internal/session"
)

type gameEngine interface {
	AddPlayer(id string) (string, error)
	RemovePlayer(id string) bool
	MovePlayer(id string, direction entity.Direction) (gridclash.MoveResult, error)
	Snapshot() entity.Snapshot
}

type sessionRegistry interface {
	Register(session *session.Session)
	Unregister(id string) bool
	HasPlayer(playerID string) bool
	PlayerIDs() []string
	Broadcast(payload []byte) []string
}

// SnapshotMirror receives every broadcast snapshot after the engine lock is released.
type SnapshotMirror interface {
	Mirror(ctx context.Context, snapshot entity.Snapshot) error
}

// Synchronizer serializes engine mutations and their broadcasts. Every mutation,
// its serialization and the fan-out happen under one write lock, so each session
// queue sees snapshots in mutation order.
type Synchronizer struct {
	logger *slog.Logger

	mu       sync.RWMutex
	engine   gameEngine
	registry sessionRegistry
	seq      uint64

	mirror             SnapshotMirror
	removeOnDisconnect bool
}

func NewSynchronizer(logger *slog.Logger, engine gameEngine, registry sessionRegistry, mirror SnapshotMirror, removeOnDisconnect bool) *Synchronizer {
	return &Synchronizer{
		logger: logger.With("component", "synchronizer"),

		engine:   engine,
		registry: registry,

		mirror:             mirror,
		removeOnDisconnect: removeOnDisconnect,
	}
}

// Connect - places the session's player, registers the session and broadcasts the board.
// A board-full error is reported to the new session only; it stays connected and waits for a free cell.
func (that *Synchronizer) Connect(ctx context.Context, sess *session.Session) error {
	that.mu.Lock()
	_, addErr := that.engine.AddPlayer(sess.PlayerID)
	that.registry.Register(sess)
	snapshot, err := that.broadcastLocked()
	that.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to broadcast state: %w", err)
	}

	that.mirrorSnapshot(ctx, snapshot)

	if addErr != nil {
		that.sendError(sess, entity.ActionConnect, addErr)
		return fmt.Errorf("failed to add player: %w", addErr)
	}

	return nil
}

// HandleMove - applies one inbound move message and broadcasts the board whether or not the move was valid.
func (that *Synchronizer) HandleMove(ctx context.Context, sess *session.Session, raw []byte) error {
	request, err := entity.ParseMoveRequest(raw)
	if err != nil {
		that.sendError(sess, entity.ActionMove, err)
		return fmt.Errorf("failed to parse move: %w", err)
	}

	// a connection only ever moves the player its identity cookie names
	playerID := sess.PlayerID
	if request.PlayerID != "" && request.PlayerID != playerID {
		err = fmt.Errorf("%w: %s", apperror.ErrForeignPlayer, request.PlayerID)
		that.sendError(sess, entity.ActionMove, err)
		return fmt.Errorf("failed to move player: %w", err)
	}

	that.mu.Lock()
	result, moveErr := that.engine.MovePlayer(playerID, request.Direction)
	snapshot, err := that.broadcastLocked()
	that.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to broadcast state: %w", err)
	}

	that.mirrorSnapshot(ctx, snapshot)

	if moveErr != nil {
		that.sendError(sess, entity.ActionMove, moveErr)
		return fmt.Errorf("failed to move player %s: %w", playerID, moveErr)
	}

	if result.Collision {
		that.logger.Debug("collision",
			"player_id", playerID,
			"displaced", result.Displaced,
			"respawned_at", result.RespawnedAt,
			"dropped", result.Dropped,
		)
	}

	return nil
}

// Disconnect - unregisters the session. The player leaves the board once its last session is gone,
// and the freed cell goes to the longest-waiting session that did not fit on the board.
func (that *Synchronizer) Disconnect(ctx context.Context, sess *session.Session) {
	log := that.logger.With("method", "Disconnect", "session_id", sess.ID, "player_id", sess.PlayerID)

	that.mu.Lock()
	that.registry.Unregister(sess.ID)

	if !that.removeOnDisconnect || that.registry.HasPlayer(sess.PlayerID) || !that.engine.RemovePlayer(sess.PlayerID) {
		that.mu.Unlock()
		return
	}

	that.placeWaitingLocked(log)

	snapshot, err := that.broadcastLocked()
	that.mu.Unlock()

	if err != nil {
		log.Error("failed to broadcast state", "error", err)
		return
	}

	log.Info("player left the board")

	that.mirrorSnapshot(ctx, snapshot)
}

// Snapshot - the current board, stamped with the last broadcast sequence.
func (that *Synchronizer) Snapshot() entity.Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	snapshot := that.engine.Snapshot()
	snapshot.Seq = that.seq

	return snapshot
}

// placeWaitingLocked must be called with the write lock held. Players already on the board are left as they are.
func (that *Synchronizer) placeWaitingLocked(log *slog.Logger) {
	for _, playerID := range that.registry.PlayerIDs() {
		if _, err := that.engine.AddPlayer(playerID); err != nil {
			if errors.Is(err, apperror.ErrBoardFull) {
				return
			}

			log.Warn("failed to place waiting player", "waiting_player_id", playerID, "error", err)
		}
	}
}

// broadcastLocked must be called with the write lock held.
func (that *Synchronizer) broadcastLocked() (entity.Snapshot, error) {
	that.seq++

	snapshot := that.engine.Snapshot()
	snapshot.Seq = that.seq

	payload, err := entity.NewStateMessage(snapshot)
	if err != nil {
		return snapshot, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if failed := that.registry.Broadcast(payload); len(failed) > 0 {
		that.logger.Warn("broadcast not delivered", "session_ids", failed, "seq", snapshot.Seq)
	}

	return snapshot, nil
}

func (that *Synchronizer) sendError(sess *session.Session, cause string, reason error) {
	log := that.logger.With("method", "sendError", "session_id", sess.ID)

	payload, err := entity.NewErrorMessage(cause, reason)
	if err != nil {
		log.Error("failed to encode error", "error", err)
		return
	}

	if err = sess.Send(payload); err != nil {
		log.Warn("failed to deliver error", "error", err)
	}
}

func (that *Synchronizer) mirrorSnapshot(ctx context.Context, snapshot entity.Snapshot) {
	if that.mirror == nil {
		return
	}

	if err := that.mirror.Mirror(ctx, snapshot); err != nil {
		that.logger.Error("failed to mirror snapshot", "seq", snapshot.Seq, "error", err)
	}
}
