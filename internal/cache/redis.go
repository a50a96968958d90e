// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the action log is pushed to.
const DefaultQueueName = "doko_actions"

// Action types that are not player commands.
const (
	ActionPartyResolved = "partyResolved"
	ActionRoundResult   = "roundResult"
)

// ActionRecord is one entry of a game's action log. The historian drains
// these into Postgres.
type ActionRecord struct {
	ID         uuid.UUID       `json:"id"`
	GameID     string          `json:"game_id"`
	Instance   int             `json:"instance"`
	Rev        int             `json:"rev"`
	Round      int             `json:"round"`
	ActorID    string          `json:"actor_id,omitempty"`
	ActionType string          `json:"action_type"`
	Payload    json.RawMessage `json:"action_payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// RoundResult is the payload of an ActionRoundResult record.
type RoundResult struct {
	GameType string    `json:"game_type"`
	Winner   string    `json:"winner"`
	Players  [4]string `json:"players"`
	Score    [5]int    `json:"score"`
	Summary  string    `json:"summary"`
}

// Connect opens a client for addr and checks that the server answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionLog pushes action records onto a Redis list and pops them again.
type ActionLog struct {
	rdb   *redis.Client
	queue string
}

func NewActionLog(rdb *redis.Client, queue string) *ActionLog {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionLog{rdb: rdb, queue: queue}
}

// Publish serializes the record and RPushes it. Records without an id or
// timestamp get one here.
func (l *ActionLog) Publish(ctx context.Context, rec ActionRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := l.rdb.RPush(ctx, l.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", l.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns nil without error
// when the queue stayed empty.
func (l *ActionLog) Pop(ctx context.Context, timeout time.Duration) (*ActionRecord, error) {
	res, err := l.rdb.BLPop(ctx, timeout, l.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", l.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	var rec ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &rec, nil
}
