// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Close codes in the private range used by the game socket.
const (
	GameFullError   websocket.StatusCode = 3000 // every seat is taken by someone else
	LeftGameClose   websocket.StatusCode = 3001 // the player sent leave
	SlowClientError websocket.StatusCode = 3002 // outbox overflowed or a write failed
)
