package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
)

// QueueHandler serves read-only inspection endpoints over the queue table.
type QueueHandler struct {
	repo   repository.QueueRepository
	logger *zap.Logger
}

func NewQueueHandler(repo repository.QueueRepository, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{repo: repo, logger: logger}
}

// List handles GET /api/v1/queue
//
// @Summary  List queue entries with filtering and pagination
// @Tags     queue
// @Produce  json
// @Param    status    query     string  false  "Filter by status"
// @Param    priority  query     string  false  "Filter by priority"
// @Param    page      query     int     false  "Page number (default 1)"
// @Param    limit     query     int     false  "Items per page (default 20, max 100)"
// @Success  200       {object}  map[string]any
// @Router   /api/v1/queue [get]
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		mapError(w, err)
		return
	}

	entries, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("queue listing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list queue entries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// GetByID handles GET /api/v1/queue/{id}
//
// @Summary  Get a queue entry by ID
// @Tags     queue
// @Produce  json
// @Param    id   path      string  true  "Entry UUID"
// @Success  200  {object}  domain.QueueEntry
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/queue/{id} [get]
func (h *QueueHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// Stats handles GET /api/v1/queue/stats
//
// @Summary  Per-status row counts
// @Tags     queue
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/queue/stats [get]
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.CountByStatus(r.Context())
	if err != nil {
		h.logger.Error("queue stats failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to count queue entries")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"counts": counts,
		"total":  counts.Total(),
	})
}

func parseListFilter(r *http.Request) (domain.ListFilter, error) {
	q := r.URL.Query()
	filter := domain.ListFilter{Page: 1, Limit: 20}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if s := q.Get("status"); s != "" {
		st := domain.Status(s)
		if !st.IsValid() {
			return filter, domain.ErrInvalidStatus
		}
		filter.Status = &st
	}
	if p := q.Get("priority"); p != "" {
		pr := domain.Priority(p)
		if !pr.IsValid() {
			return filter, domain.ErrInvalidPriority
		}
		filter.Priority = &pr
	}
	return filter, nil
}
