// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/doko/internal/auth"
	"github.com/jason-s-yu/doko/internal/session"
	"github.com/sirupsen/logrus"
)

// API serves the REST endpoints and the game socket.
type API struct {
	Store  *session.Store
	Hub    *Hub
	Creds  *auth.Credentials
	Tokens *auth.TokenIssuer
	Logger *logrus.Logger

	// LivenessInterval is the ping period of game sockets. Zero disables
	// pings.
	LivenessInterval time.Duration
	// OriginPatterns is passed to websocket.Accept.
	OriginPatterns []string
}

// Routes mounts every endpoint. Everything except login needs a token.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/login", a.login)
	r.Group(func(r chi.Router) {
		r.Use(a.requireToken)
		r.Get("/api/games", a.listGames)
		r.Put("/api/games/{id}", a.createGame)
		r.Post("/api/games/{id}/revert", a.revertGame)
		r.Get("/api/games/{id}/join", a.joinGame)
	})
	return r
}

func (a *API) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID, err := a.Tokens.Verify(requestToken(r))
		if err != nil {
			a.Logger.WithFields(logrus.Fields{"path": r.URL.Path, "remote": r.RemoteAddr}).
				WithError(err).Info("request without valid api token")
			writeJSON(w, http.StatusUnauthorized, "invalid api token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPlayer(r.Context(), playerID)))
	})
}

type loginRequest struct {
	PlayerID string `json:"playerId"`
	Pass     string `json:"pass"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	entry := a.Logger.WithField("player", req.PlayerID)

	err := a.Creds.Check(req.PlayerID, req.Pass)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrLockedOut):
		entry.WithField("attempts", a.Creds.FailedAttempts(req.PlayerID)).Warn("failed login")
		writeJSON(w, http.StatusConflict, "Invalid username / password", nil)
		return
	default:
		entry.WithError(err).Error("login check failed")
		writeJSON(w, http.StatusInternalServerError, "login failed", nil)
		return
	}

	token, err := a.Tokens.Issue(req.PlayerID)
	if err != nil {
		entry.WithError(err).Error("failed to issue token")
		writeJSON(w, http.StatusInternalServerError, "login failed", nil)
		return
	}
	entry.Info("successful login")
	writeJSON(w, http.StatusOK, "success", map[string]string{"apiToken": token})
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "listing games", a.Store.List())
}

type createRequest struct {
	Rounds int `json:"rounds"`
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Rounds < 0 {
		writeJSON(w, http.StatusBadRequest, "rounds must be positive", nil)
		return
	}

	s, err := a.Store.Create(r.Context(), id, req.Rounds)
	switch {
	case errors.Is(err, session.ErrInvalidGameID):
		writeJSON(w, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, session.ErrGameExists):
		writeJSON(w, http.StatusConflict, "game already exists!", nil)
		return
	case err != nil && s == nil:
		a.Logger.WithError(err).WithField("game", id).Error("create game failed")
		writeJSON(w, http.StatusInternalServerError, "could not create game", nil)
		return
	case err != nil:
		a.Logger.WithError(err).WithField("game", id).Warn("game created but first snapshot failed")
	}
	a.Logger.WithFields(logrus.Fields{"game": id, "player": playerFrom(r.Context())}).Info("game created")
	writeJSON(w, http.StatusCreated, "entity created", s.Summary())
}

func (a *API) revertGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := a.Store.Revert(r.Context(), id, playerFrom(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, "reverted", nil)
	case errors.Is(err, session.ErrGameNotFound):
		writeJSON(w, http.StatusNotFound, "Game not found", nil)
	case errors.Is(err, session.ErrNothingToRevert):
		writeJSON(w, http.StatusConflict, err.Error(), nil)
	default:
		a.Logger.WithError(err).WithField("game", id).Error("revert failed")
		writeJSON(w, http.StatusInternalServerError, "revert failed", nil)
	}
}
