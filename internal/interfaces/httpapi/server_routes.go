package httpapi

import (
	"net/http"

	"github.com/footdata/standings-engine/internal/platform/metrics"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/health", handler.HealthReport)
	// Prometheus scrape output; not wrapped in the JSON envelope.
	mux.Handle("GET /metrics", metrics.Handler())

	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerOperatorRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/seasons/{season}/table", handler.GetLeagueTable)
	mux.HandleFunc("POST /v1/leagues/{leagueID}/seasons/{season}/recalculations", handler.EnqueueRecalculation)

	mux.HandleFunc("GET /v1/calculations/queue", handler.QueueStatus)
	mux.HandleFunc("GET /v1/calculations/jobs/{jobID}", handler.GetJob)
	mux.HandleFunc("DELETE /v1/calculations/jobs/{jobID}", handler.CancelJob)
	mux.HandleFunc("POST /v1/calculations/pause", handler.PauseQueue)
	mux.HandleFunc("POST /v1/calculations/resume", handler.ResumeQueue)

	mux.HandleFunc("GET /v1/snapshots", handler.ListSnapshots)
	mux.HandleFunc("POST /v1/snapshots", handler.CreateSnapshot)
	mux.HandleFunc("POST /v1/snapshots/{snapshotID}/restore", handler.RestoreSnapshot)
}

func registerInternalEventRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/events/match-result", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestMatchResult)))
}
