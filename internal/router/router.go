package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "pet-run-board/internal/adapters/storage/memory"
	pg "pet-run-board/internal/adapters/storage/postgres"
	"pet-run-board/internal/domain/assignments"
	"pet-run-board/internal/domain/roster"
	"pet-run-board/internal/middleware"
	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/platform/metrics"
	"pet-run-board/internal/ports/auth"

	_ "pet-run-board/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    logger.Logger
	Metrics   *metrics.Collector   // nil = sin /metrics
	Publisher assignments.Publisher // nil = sin eventos board.saved

	// Location define "el día" del roster. nil = time.Local.
	Location *time.Location
}

// NewRouter arma el backend: runs, boards por fecha y roster.
func NewRouter(opts Options) http.Handler {
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
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		runRepo    assignments.Repository
		rosterRepo roster.Repository
	)
	if opts.DB != nil {
		runRepo = pg.NewAssignmentsRepo(opts.DB)
		rosterRepo = pg.NewRosterRepo(opts.DB)
	} else {
		runRepo = mem.NewAssignmentsRepo()
		rosterRepo = mem.NewRosterRepo()
	}

	svcOpts := []assignments.Option{assignments.WithLogger(log)}
	if opts.Publisher != nil {
		svcOpts = append(svcOpts, assignments.WithPublisher(opts.Publisher))
	}
	if opts.Metrics != nil {
		svcOpts = append(svcOpts, assignments.WithRecorder(opts.Metrics))
	}

	// Services por módulo
	boardSvc := assignments.NewService(runRepo, svcOpts...)
	rosterSvc := roster.NewService(rosterRepo, opts.Location)

	// Rutas por módulo
	assignments.RegisterRoutes(r, boardSvc)
	roster.RegisterRoutes(r, rosterSvc)

	return r
}
