// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/doko/internal/game"
	"github.com/jason-s-yu/doko/internal/middleware"
	"github.com/jason-s-yu/doko/internal/session"
	"github.com/sirupsen/logrus"
)

// socketMessage is the {command, params} frame sent to clients outside the
// game document itself.
type socketMessage struct {
	Command string `json:"command"`
	Params  []any  `json:"params,omitempty"`
}

type socketError struct {
	Error string `json:"error"`
}

// joinGame upgrades to the game socket, seats the player and relays their
// commands to the session until the socket closes.
func (a *API) joinGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	playerID := playerFrom(r.Context())
	s, err := a.Store.Get(gameID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, "Game not found", nil)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: a.OriginPatterns})
	if err != nil {
		a.Logger.WithError(err).WithField("game", gameID).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal server error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(conn, gameID, playerID)
	c.sendJSON(a.Logger, socketMessage{Command: "id", Params: []any{c.id}})
	a.Hub.register(c)
	if _, err := s.Join(ctx, playerID); err != nil {
		a.Hub.unregister(c)
		a.writeNow(ctx, conn, socketError{Error: err.Error()})
		code := websocket.StatusPolicyViolation
		if errors.Is(err, game.ErrGameFull) {
			code = GameFullError
		}
		conn.Close(code, "could not join")
		return
	}
	middleware.LogWebSocketConnect(a.Logger, r.RemoteAddr, gameID, playerID)

	go c.writeLoop(ctx, a.Logger)
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	if a.LivenessInterval > 0 {
		go a.keepAlive(ctx, c, cancel)
	}
	err = a.readLoop(ctx, c, s)

	others := a.Hub.unregister(c)
	if !others && !errors.Is(err, errLeft) {
		s.Disconnect(playerID)
	}
	c.stop()
	middleware.LogWebSocketDisconnect(a.Logger, r.RemoteAddr, gameID, playerID, err)

	switch {
	case errors.Is(err, errLeft):
		conn.Close(LeftGameClose, "left the game")
	case websocket.CloseStatus(err) != -1:
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		conn.Close(SlowClientError, "connection lost")
	}
}

var errLeft = errors.New("player left the game")

// writeNow bypasses the outbox. Only for use before the writer runs.
func (a *API) writeNow(ctx context.Context, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.Logger.WithError(err).Error("failed to marshal socket message")
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		a.Logger.WithError(err).Warn("failed to write to socket")
	}
}

// readLoop decodes commands and applies them. Errors go back to the sender
// only. It returns the error that ended the connection.
func (a *API) readLoop(ctx context.Context, c *client, s *session.Session) error {
	entry := a.Logger.WithFields(logrus.Fields{"game": c.gameID, "player": c.playerID})
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			entry.Warn("ignoring binary message")
			continue
		}

		action, err := session.DecodeAction(data)
		if err != nil {
			entry.WithError(err).Debug("bad command")
			c.sendJSON(a.Logger, socketError{Error: err.Error()})
			continue
		}
		if _, ok := action.(session.ClientPing); ok {
			c.sendJSON(a.Logger, socketMessage{Command: "pong"})
			continue
		}

		entry.WithField("command", action.Command()).Debug("received command")
		if err := s.Apply(ctx, c.playerID, action); err != nil {
			if !errors.Is(err, game.ErrRuleViolation) {
				entry.WithError(err).WithField("command", action.Command()).Warn("command failed")
			}
			c.sendJSON(a.Logger, socketError{Error: err.Error()})
			continue
		}
		if _, ok := action.(session.Leave); ok {
			return errLeft
		}
	}
}

// keepAlive pings the client every LivenessInterval and drops the
// connection when a pong does not arrive in time.
func (a *API) keepAlive(ctx context.Context, c *client, cancel context.CancelFunc) {
	t := time.NewTicker(a.LivenessInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, a.LivenessInterval)
			err := c.conn.Ping(pctx)
			pcancel()
			if err != nil {
				if ctx.Err() == nil {
					a.Logger.WithFields(logrus.Fields{"game": c.gameID, "player": c.playerID}).
						WithError(err).Info("liveness probe failed")
				}
				cancel()
				return
			}
		}
	}
}
