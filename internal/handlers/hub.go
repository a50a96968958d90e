// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/doko/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
)

// client is one player's socket. All writes go through out so messages
// reach the player in the order they were produced.
type client struct {
	id       string
	gameID   string
	playerID string
	conn     *websocket.Conn
	out      chan []byte
	once     sync.Once
	done     chan struct{}
}

func newClient(conn *websocket.Conn, gameID, playerID string) *client {
	return &client{
		id:       uuid.NewString(),
		gameID:   gameID,
		playerID: playerID,
		conn:     conn,
		out:      make(chan []byte, outboxSize),
		done:     make(chan struct{}),
	}
}

// send queues data without blocking. It reports false when the outbox is
// full or the client is gone.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

func (c *client) sendJSON(logger *logrus.Logger, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.WithError(err).Error("failed to marshal socket message")
		return
	}
	c.send(data)
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// writeLoop drains the outbox until the client stops or a write fails.
func (c *client) writeLoop(ctx context.Context, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case data := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithFields(logrus.Fields{
					"game":   c.gameID,
					"player": c.playerID,
					"conn":   c.id,
				}).WithError(err).Warn("failed to write to socket")
				c.stop()
				return
			}
		}
	}
}

// Hub knows the open sockets of every game and renders each player's view
// of a changed document.
type Hub struct {
	mu     sync.Mutex
	games  map[string]map[*client]struct{}
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{games: make(map[string]map[*client]struct{}), logger: logger}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.games[c.gameID]
	if !ok {
		set = make(map[*client]struct{})
		h.games[c.gameID] = set
	}
	set[c] = struct{}{}
}

// unregister drops c and reports whether the player still has another
// socket open on the same game.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.games[c.gameID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.games, c.gameID)
	}
	for other := range set {
		if other.playerID == c.playerID {
			return true
		}
	}
	return false
}

// Broadcast sends every socket of the game its own view. It runs while the
// session holds its lock, so it only marshals and queues.
func (h *Hub) Broadcast(g *game.Game) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.games[g.GameID]))
	for c := range h.games[g.GameID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	views := make(map[string][]byte, len(clients))
	for _, c := range clients {
		data, ok := views[c.playerID]
		if !ok {
			var err error
			data, err = json.Marshal(g.ViewFor(c.playerID))
			if err != nil {
				h.logger.WithError(err).WithField("game", g.GameID).Error("failed to marshal game view")
				return
			}
			views[c.playerID] = data
		}
		if !c.send(data) {
			h.logger.WithFields(logrus.Fields{
				"game":   g.GameID,
				"player": c.playerID,
				"conn":   c.id,
			}).Warn("socket outbox full, closing connection")
			c.stop()
		}
	}
}
