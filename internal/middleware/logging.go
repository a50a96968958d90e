// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs every request with its status, size and duration.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
				"reqId":    chimw.GetReqID(r.Context()),
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a player's socket joining a game.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr, gameID, playerID string) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"game":   gameID,
		"player": playerID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a player's socket going away.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr, gameID, playerID string, err error) {
	fields := logrus.Fields{
		"remote": remoteAddr,
		"game":   gameID,
		"player": playerID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
