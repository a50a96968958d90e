package handlers

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/doko/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSendsEachPlayerItsView(t *testing.T) {
	h := NewHub(quietLogger())
	g := game.NewGame("t", 0)
	for _, p := range []string{"anna", "ben", "cara", "dirk"} {
		_, _, err := g.Join(p)
		require.NoError(t, err)
	}
	require.NoError(t, g.StartRound(nil))

	anna := newClient(nil, "t", "anna")
	ben := newClient(nil, "t", "ben")
	other := newClient(nil, "other", "anna")
	h.register(anna)
	h.register(ben)
	h.register(other)

	h.Broadcast(g)
	var view game.GameView
	require.NoError(t, json.Unmarshal(<-anna.out, &view))
	assert.Equal(t, 0, view.Seat)
	assert.Len(t, view.PlayerState["anna"].Hand, 10)
	require.NoError(t, json.Unmarshal(<-ben.out, &view))
	assert.Equal(t, 1, view.Seat)
	assert.Empty(t, other.out, "other games are not touched")
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(quietLogger())
	g := game.NewGame("t", 0)
	c := newClient(nil, "t", "anna")
	h.register(c)
	for i := 0; i < outboxSize; i++ {
		h.Broadcast(g)
	}
	select {
	case <-c.done:
		t.Fatal("client stopped before its outbox was full")
	default:
	}
	h.Broadcast(g)
	<-c.done
	assert.False(t, c.send([]byte("late")))
}

func TestHubUnregisterReportsOtherSockets(t *testing.T) {
	h := NewHub(quietLogger())
	first := newClient(nil, "t", "anna")
	second := newClient(nil, "t", "anna")
	h.register(first)
	h.register(second)

	assert.True(t, h.unregister(first))
	assert.False(t, h.unregister(second))
	assert.Empty(t, h.games)
}
