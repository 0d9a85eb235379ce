package jobshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpayroll/internal/platform/jobs"
	"hrpayroll/internal/transport/http/api"
	"hrpayroll/internal/transport/http/middleware"
)

type Getter interface {
	Get(ctx context.Context, jobID string) (jobs.Run, error)
}

type Handler struct {
	Jobs Getter
}

func NewHandler(j Getter) *Handler {
	return &Handler{Jobs: j}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/jobs/{jobID}", h.handleGetJob)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, run, reqID)
}
