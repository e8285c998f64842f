// internal/handlers/session_http.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// HealthzHandler reports liveness and the number of live sessions.
func HealthzHandler(srv *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": srv.Store.Len(),
		})
	}
}

// ListSessionsHandler returns the snapshot of every live session.
func ListSessionsHandler(srv *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, srv.Store.List())
	}
}

// GetSessionHandler returns one session snapshot.
func GetSessionHandler(srv *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, srv)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, session.Snapshot())
	}
}

// SessionQRHandler renders a PNG QR code of the session's join link.
func SessionQRHandler(srv *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, srv)
		if !ok {
			return
		}

		png, err := qrcode.Encode(srv.joinURL(r, session.ID), qrcode.Medium, qrSize)
		if err != nil {
			srv.Logger.Warnf("qr generation failed for session %s: %v", session.ID, err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// joinURL builds the link a player scans to join. Without a configured
// public URL it is derived from the request, honoring X-Forwarded-Proto.
func (srv *SessionServer) joinURL(r *http.Request, sessionID uuid.UUID) string {
	base := strings.TrimSuffix(srv.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?session=" + sessionID.String()
}

func lookupSession(w http.ResponseWriter, r *http.Request, srv *SessionServer) (*game.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return nil, false
	}
	session, err := srv.Store.Get(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
