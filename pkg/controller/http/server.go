package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/route07/riskcore/pkg/usecase"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/route07/riskcore/pkg/utils/safe"
)

type Server struct {
	router     *chi.Mux
	uc         *usecase.UseCases
	authSecret []byte
	sweepLimit int
}

type Options func(*Server)

// WithAuthSecret enables bearer token verification on the API routes.
// Without a secret the API is open, which is only sensible behind a
// trusted proxy.
func WithAuthSecret(secret []byte) Options {
	return func(s *Server) {
		s.authSecret = secret
	}
}

// WithSweepLimit caps how many subjects one sweep request may process
func WithSweepLimit(limit int) Options {
	return func(s *Server) {
		if limit > 0 {
			s.sweepLimit = limit
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:     r,
		uc:         uc,
		sweepLimit: 100,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		if len(s.authSecret) > 0 {
			r.Use(bearerAuthMiddleware(s.authSecret))
		}

		r.Post("/assess/{subjectID}", s.assessHandler())
		r.Get("/risk/high", s.highRiskHandler())
		r.Post("/sweep", s.sweepHandler())
		r.Get("/subjects/{subjectID}/profile", s.profileHandler())
		r.Get("/subjects/{subjectID}/audit", s.auditHandler())
	})

	// Operational endpoints stay outside auth.
	r.Get("/health", healthHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}
