// Package server exposes the sqlite content store over the same
// /rest/v1/{table} contract the REST client consumes.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/abelbrown/lessonvault/internal/session"
	"github.com/abelbrown/lessonvault/internal/store"
)

type contextKey string

const userKey = contextKey("user")

// Config wires the router.
type Config struct {
	Store  *store.Store
	Secret []byte      // HS256 secret for access tokens; empty disables signature checks
	Log    *log.Logger // optional
}

// New returns the HTTP handler.
func New(cfg Config) http.Handler {
	if cfg.Log == nil {
		cfg.Log = log.New(discard{})
	}
	h := &handlers{st: cfg.Store, log: cfg.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "apikey", "Prefer", "Cache-Control"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(authJWT(cfg.Secret))
		r.Route("/{table}", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Delete("/", h.delete)
		})
	})

	return r
}

// authJWT resolves the Bearer token to a user id.
func authJWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := session.ParseToken(parts[1], secret)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userID(r *http.Request) string {
	uid, _ := r.Context().Value(userKey).(string)
	return uid
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
				"req", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// writeError renders a PostgREST-shaped error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"message": msg})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
