// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/gpcards/internal/middleware"
)

// NewRouter mounts the websocket endpoint and the read-only HTTP API.
// allowedOrigins applies to the HTTP API; nil allows any http(s) origin.
func NewRouter(srv *SessionServer, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LogMiddleware(srv.Logger))
	r.Use(chimw.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/ws", SessionWSHandler(srv))
		r.Get("/healthz", HealthzHandler(srv))
		r.Route("/session/{id}", func(r chi.Router) {
			r.Get("/", GetSessionHandler(srv))
			r.Get("/qr", SessionQRHandler(srv))
		})
	})

	// Operator endpoint: no CORS headers, so browsers on other origins
	// cannot read it.
	if srv.ListSessions {
		r.Get("/sessions", ListSessionsHandler(srv))
	}
	return r
}
