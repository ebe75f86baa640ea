package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/solclaim/solclaim/internal/api/handlers"
	"github.com/solclaim/solclaim/internal/api/middleware"
	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/db"
	"github.com/solclaim/solclaim/internal/scan"
	"github.com/solclaim/solclaim/internal/soltx"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	DB          *db.DB
	Manager     *scan.Manager
	Batch       *scan.BatchScanner
	Blockhashes soltx.BlockhashProvider
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging)

	slog.Info("router initialized", "middleware", []string{"requestLogging"})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(deps.Config, Version))

		r.Post("/scan", handlers.StartScan(deps.Manager, deps.DB))
		r.Get("/scan/{id}", handlers.GetScanJob(deps.Manager))

		r.Get("/report/{wallet}", handlers.GetReport(deps.DB))
		r.Delete("/report/{wallet}", handlers.DeleteReport(deps.DB))
		r.Get("/reports", handlers.ListReports(deps.DB))

		r.Post("/batch", handlers.BatchScan(deps.Batch))
		r.Post("/close", handlers.BuildCloseTx(deps.Blockhashes))
	})

	return r
}
