package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	vectord "github.com/embedware/vectord"
	"github.com/embedware/vectord/infrastructure/api/middleware"
	"github.com/embedware/vectord/infrastructure/api/v1/dto"
)

// HealthRouter handles liveness and readiness endpoints.
type HealthRouter struct {
	client *vectord.Client
}

// NewHealthRouter creates a new HealthRouter.
func NewHealthRouter(client *vectord.Client) *HealthRouter {
	return &HealthRouter{client: client}
}

// Routes returns the chi router for health endpoints.
func (r *HealthRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/health", r.Health)
	router.Get("/healthz", r.Health)
	router.Get("/ready", r.Ready)

	return router
}

// Health handles GET /health.
//
//	@Summary	Liveness probe
//	@Produce	json
//	@Success	200	{object}	dto.HealthResponse
//	@Router		/health [get]
func (r *HealthRouter) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Ready handles GET /ready. It reports 503 until the default model has
// loaded and the configuration has been validated.
//
//	@Summary	Readiness probe
//	@Produce	json
//	@Success	200	{object}	dto.ReadyResponse
//	@Failure	503	{object}	dto.ReadyResponse
//	@Router		/ready [get]
func (r *HealthRouter) Ready(w http.ResponseWriter, _ *http.Request) {
	state := r.client.Health.Snapshot()

	status := http.StatusOK
	if !state.Ready {
		status = http.StatusServiceUnavailable
	}

	middleware.WriteJSON(w, status, dto.ReadyResponse{
		Ready:       state.Ready,
		ModelLoaded: state.ModelLoaded,
		ConfigValid: state.ConfigValid,
		Details:     state.Detail,
	})
}
