package router

import (
	"net/http"

	"pet-run-board/internal/domain/console"
	"pet-run-board/internal/middleware"
	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/platform/metrics"
	"pet-run-board/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ConsoleOptions struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Manager      *console.Manager

	Logger  logger.Logger
	Metrics *metrics.Collector // nil = sin /metrics
}

// NewConsoleRouter expone las sesiones de board de los operadores.
func NewConsoleRouter(opts ConsoleOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, middleware.WithAuthLogger(log)))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	console.RegisterRoutes(r, opts.Manager)
	return r
}
