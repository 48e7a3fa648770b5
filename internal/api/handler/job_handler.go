package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/pantrywatch/expiry-notifier/internal/api/middleware"
	"github.com/pantrywatch/expiry-notifier/internal/job"
)

// PopulateRunner and DrainRunner are what the handler needs from the jobs.
// Tests substitute stubs without touching a database or a chat channel.
type PopulateRunner interface {
	Run(ctx context.Context) *job.PopulateResult
}

type DrainRunner interface {
	Run(ctx context.Context) *job.DrainResult
}

// JobHandler exposes the two queue jobs as trigger endpoints.
// The platform scheduler POSTs here on its own cadence; a non-2xx response
// means total failure of the run, partial failures come back as 200 with
// failure counts embedded so the scheduler does not retry a mostly
// successful run.
type JobHandler struct {
	populator PopulateRunner
	drainer   DrainRunner
	logger    *zap.Logger
}

func NewJobHandler(populator PopulateRunner, drainer DrainRunner, logger *zap.Logger) *JobHandler {
	return &JobHandler{populator: populator, drainer: drainer, logger: logger}
}

// Populate handles POST /api/v1/jobs/populate
//
// @Summary     Stage reminders for items expiring within the horizon
// @Tags        jobs
// @Produce     json
// @Success     200  {object}  job.PopulateResult
// @Failure     500  {object}  job.PopulateResult  "Every offset failed"
// @Router      /api/v1/jobs/populate [post]
func (h *JobHandler) Populate(w http.ResponseWriter, r *http.Request) {
	result := h.populator.Run(r.Context())
	if !result.Success {
		h.logger.Error("population run failed entirely",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
		)
		respondJSON(w, http.StatusInternalServerError, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Drain handles POST /api/v1/jobs/drain
//
// @Summary     Deliver pending reminders in priority order
// @Tags        jobs
// @Produce     json
// @Success     200  {object}  job.DrainResult
// @Failure     500  {object}  job.DrainResult  "Pending fetch failed"
// @Router      /api/v1/jobs/drain [post]
func (h *JobHandler) Drain(w http.ResponseWriter, r *http.Request) {
	result := h.drainer.Run(r.Context())
	if !result.Success {
		h.logger.Error("drain run aborted",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("error", result.Error),
		)
		respondJSON(w, http.StatusInternalServerError, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
