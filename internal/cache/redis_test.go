package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActionLogRoundTrip needs a Redis on localhost:6379 and is skipped
// otherwise.
func TestActionLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb, err := Connect(ctx, "localhost:6379", 0)
	if err != nil {
		t.Skipf("no local redis: %v", err)
	}
	defer rdb.Close()

	queue := "doko-test-" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), queue) })
	l := NewActionLog(rdb, queue)

	payload, _ := json.Marshal(map[string]string{"cardId": "herz-zehn"})
	require.NoError(t, l.Publish(ctx, ActionRecord{
		GameID:     "table",
		Rev:        7,
		ActorID:    "anna",
		ActionType: "playCard",
		Payload:    payload,
	}))

	rec, err := l.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.NotZero(t, rec.Timestamp)
	assert.Equal(t, "playCard", rec.ActionType)
	assert.JSONEq(t, `{"cardId":"herz-zehn"}`, string(rec.Payload))

	rec, err = l.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, rec, "queue is drained")
}

func TestNewActionLogDefaultsQueue(t *testing.T) {
	assert.Equal(t, DefaultQueueName, NewActionLog(nil, "").queue)
}
