package server

import (
	"net/http"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/handlers"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator       middleware.AuthValidator
	RecordHandler       *handlers.RecordHandler
	IngestHandler       *handlers.IngestHandler
	SearchHandler       *handlers.SearchHandler
	AnswerHandler       *handlers.AnswerHandler
	DistributionHandler *handlers.DistributionHandler
	AssetHandler        *handlers.AssetHandler
	AuthHandler         *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/records", func(r chi.Router) {
			r.Post("/", cfg.RecordHandler.Capture)
			r.Get("/", cfg.RecordHandler.List)
			r.Get("/{id}", cfg.RecordHandler.Get)
			r.Put("/{id}/annotations", cfg.RecordHandler.Annotate)
			r.Post("/{id}/archive", cfg.RecordHandler.Archive)
			r.Post("/{id}/discard", cfg.RecordHandler.Discard)
			r.Post("/{id}/distribute", cfg.DistributionHandler.Distribute)
		})

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/process", cfg.IngestHandler.ProcessBatch)
			r.Post("/process-all", cfg.IngestHandler.ProcessAll)
			r.Get("/jobs/{id}", cfg.IngestHandler.GetJob)
		})

		r.Get("/search", cfg.SearchHandler.Search)
		r.Post("/ask", cfg.AnswerHandler.Ask)

		r.Route("/assets", func(r chi.Router) {
			r.Post("/init", cfg.AssetHandler.InitUpload)
			r.Post("/complete", cfg.AssetHandler.CompleteUpload)
			r.Get("/{id}/download", cfg.AssetHandler.GetDownloadURL)
			r.Post("/{id}/summary", cfg.AssetHandler.GenerateSummary)
			r.Delete("/{id}", cfg.AssetHandler.Delete)
		})

		r.Get("/apikeys", cfg.AuthHandler.ListAPIKeys)
		r.Delete("/apikeys/{id}", cfg.AuthHandler.RevokeAPIKey)
	})

	r.Post("/owners", cfg.AuthHandler.CreateOwner)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
