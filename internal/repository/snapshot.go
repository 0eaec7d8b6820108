package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
)

const DefaultKeyPrefix = "gridclash"

// SnapshotRepository mirrors broadcast snapshots to Redis for outside observers.
// It is write-only from the game's point of view: nothing is ever loaded back into the engine.
type SnapshotRepository struct {
	client *redis.Client
	prefix string

	mu      sync.Mutex
	lastSeq uint64
}

func NewSnapshotRepository(client *redis.Client, prefix string) *SnapshotRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &SnapshotRepository{
		client: client,
		prefix: prefix,
	}
}

func (that *SnapshotRepository) snapshotKey() string { return that.prefix + ":snapshot" }
func (that *SnapshotRepository) scoresKey() string   { return that.prefix + ":scores" }

// EventsChannel - pub/sub channel every mirrored snapshot is published on.
func (that *SnapshotRepository) EventsChannel() string { return that.prefix + ":events" }

// Mirror stores the snapshot, rebuilds the score leaderboard and publishes the snapshot.
// Snapshots older than the last mirrored one are skipped.
func (that *SnapshotRepository) Mirror(ctx context.Context, snapshot entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if snapshot.Seq != 0 && snapshot.Seq <= that.lastSeq {
		return nil
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.Set(ctx, that.snapshotKey(), snapshotJSON, 0)
	pipe.Del(ctx, that.scoresKey())

	members := scoreMembers(snapshot)
	if len(members) > 0 {
		pipe.ZAdd(ctx, that.scoresKey(), members...)
	}

	pipe.Publish(ctx, that.EventsChannel(), snapshotJSON)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror snapshot: %w", err)
	}

	that.lastSeq = snapshot.Seq

	return nil
}

func (that *SnapshotRepository) GetSnapshot(ctx context.Context) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, that.snapshotKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// TopScores - best scores first, at most limit entries.
func (that *SnapshotRepository) TopScores(ctx context.Context, limit int64) ([]entity.ScoreEntry, error) {
	if limit <= 0 {
		return []entity.ScoreEntry{}, nil
	}

	response, err := that.client.ZRevRangeWithScores(ctx, that.scoresKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	entries := make([]entity.ScoreEntry, 0, len(response))
	for _, z := range response {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		entries = append(entries, entity.ScoreEntry{PlayerID: member, Score: int(z.Score)})
	}

	return entries, nil
}

func scoreMembers(snapshot entity.Snapshot) []redis.Z {
	var members []redis.Z
	for _, row := range snapshot.WorldMap {
		for _, player := range row {
			if player != nil {
				members = append(members, redis.Z{Score: float64(player.Score), Member: player.ID})
			}
		}
	}

	return members
}
