package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pqchat/internal/domain"
)

// maxUploadBytes bounds a key publish body.
const maxUploadBytes = 64 << 10

// Server bundles the relay's state behind one router.
type Server struct {
	cfg       Config
	log       *slog.Logger
	metrics   *Metrics
	hub       *Hub
	directory *Directory
}

// NewServer wires a fresh directory and hub.
func NewServer(cfg Config, log *slog.Logger) *Server {
	m := NewMetrics()
	return &Server{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		hub:       New(log, m, cfg.AllowedOrigins),
		directory: NewDirectory(),
	}
}

// Hub exposes the connection registry.
func (s *Server) Hub() *Hub { return s.hub }

// Metrics exposes the relay collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		if s.cfg.RateLimit > 0 {
			window := s.cfg.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, window))
		}
		r.Post("/keys", s.handlePublish)
		r.Get("/keys/{user}/kem", s.handleKey(s.directory.KEMKey))
		r.Get("/keys/{user}/sig", s.handleKey(s.directory.SigningKey))
		r.Get("/presence/{peer}", s.handlePresence)
	})

	r.Get("/ws/{user}", func(w http.ResponseWriter, r *http.Request) {
		user, err := userParam(r, "user")
		if err != nil {
			http.Error(w, "invalid user", http.StatusBadRequest)
			return
		}
		s.hub.ServeWS(w, r, user)
	})

	return r
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())
	var up domain.KeyUpload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&up); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		s.log.Warn("key publish decode failed", "error", err, "request_id", reqID)
		return
	}
	if err := s.directory.Publish(up); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrValidation) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		s.log.Warn("key publish rejected", "user", up.User, "error", err, "request_id", reqID)
		return
	}
	s.log.Info("keys published", "user", up.User, "request_id", reqID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKey(lookup func(domain.UserID) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userParam(r, "user")
		if err != nil {
			http.Error(w, "invalid user", http.StatusBadRequest)
			return
		}
		pk, ok := lookup(user)
		if !ok {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, domain.KeyLookup{User: user, PK: pk})
	}
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	peer, err := userParam(r, "peer")
	if err != nil {
		http.Error(w, "invalid peer", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, domain.Presence{PeerID: peer, Online: s.hub.Online(peer)})
}

// userParam reads a user id path parameter. chi matches on the escaped path
// when one is present, so the value is unescaped before validation.
func userParam(r *http.Request, key string) (domain.UserID, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		u, err := url.PathUnescape(v)
		if err != nil {
			return "", fmt.Errorf("user id %q: %v: %w", v, err, domain.ErrValidation)
		}
		v = u
	}
	user := domain.UserID(v)
	return user, domain.ValidateUserID(user)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
