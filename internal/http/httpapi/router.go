package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"engine/internal/http/handlers"
	"engine/internal/middleware"
)

// Options configures the router.
type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	// AssetsDir is served under /assets/ when set.
	AssetsDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.RequestID(opts.Logger),
		middleware.Logger,
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/health", app.Health)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())

	limited := middleware.RateLimit(opts.RateLimitPerMin)
	r.Route("/shots", func(r chi.Router) {
		r.Use(limited)
		r.Post("/process", app.ProcessShot)
		r.Post("/regenerate", app.RegenerateShot)
	})
	r.Route("/nanobanana", func(r chi.Router) {
		r.Get("/current", app.CurrentProject)
		r.Get("/projects/{projectID}/approval", app.ProjectApproval)
		r.Get("/projects/{projectID}/archive", app.ProjectArchive)
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/ingest", app.IngestProject)
			r.Post("/generate/{projectID}", app.GenerateProject)
			r.Post("/run-full", app.RunFull)
		})
	})

	if opts.AssetsDir != "" {
		fs := http.StripPrefix("/assets", http.FileServer(http.Dir(opts.AssetsDir)))
		r.Handle("/assets/*", fs)
	}
	return r
}
