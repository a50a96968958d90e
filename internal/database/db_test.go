package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	got := ConnString("doko", "p@ss:word", "db", "5432", "doko")
	assert.Equal(t, "postgres://doko:p%40ss%3Aword@db:5432/doko", got)
}

// TestSaveActions runs against DATABASE_URL and is skipped without it.
func TestSaveActions(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, EnsureSchema(ctx, pool))

	gameID := "test-" + uuid.NewString()
	payload, err := json.Marshal(cache.RoundResult{
		GameType: "gesund",
		Winner:   "Re",
		Players:  [4]string{"anna", "ben", "cara", "dirk"},
		Score:    [5]int{3, 3, -3, -3, 3},
		Summary:  "Re gewinnt mit 125 Augen.",
	})
	require.NoError(t, err)
	now := time.Now().UnixMilli()
	result := cache.ActionRecord{ID: uuid.New(), GameID: gameID, Round: 0, ActionType: cache.ActionRoundResult, Payload: payload, Timestamp: now}
	recs := []cache.ActionRecord{
		{ID: uuid.New(), GameID: gameID, Rev: 1, ActorID: "anna", ActionType: "playCard", Timestamp: now},
		result,
	}
	require.NoError(t, SaveActions(ctx, pool, recs))
	require.NoError(t, SaveActions(ctx, pool, []cache.ActionRecord{result}), "saving a record twice is harmless")

	rows, err := RoundResults(ctx, pool, gameID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Re", rows[0].Winner)
	assert.Equal(t, []int32{3, 3, -3, -3, 3}, rows[0].Score)
	assert.Equal(t, []string{"anna", "ben", "cara", "dirk"}, rows[0].Players)
}
