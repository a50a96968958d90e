package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey int

const playerKey ctxKey = iota

// envelope is the {meta, content} shape of every API response.
type envelope struct {
	Meta    meta `json:"meta"`
	Content any  `json:"content"`
}

type meta struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, message string, content any) {
	if content == nil {
		content = struct{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Meta: meta{Message: message}, Content: content})
}

// requestToken finds the API token in the query, a bearer header or the
// auth_token cookie, in that order. Browsers cannot set headers on a socket
// upgrade, hence the query parameter.
func requestToken(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}

func withPlayer(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerKey, playerID)
}

// playerFrom returns the authenticated player of the request.
func playerFrom(ctx context.Context) string {
	id, _ := ctx.Value(playerKey).(string)
	return id
}
