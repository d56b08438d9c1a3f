package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/jobs"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/validation"
)

// JobDispatcher queues sync jobs.
type JobDispatcher interface {
	Dispatch(ctx context.Context, syncType models.SyncType, params service.Params) (jobs.Definition, error)
}

// JobStatusReader reports the latest state of a dispatched job.
type JobStatusReader interface {
	Get(jobID string) (jobs.Status, bool)
}

type SyncHandler struct {
	Jobs    JobDispatcher
	Status  JobStatusReader
	Webhook config.WebhookConfig
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	r.POST("/api/sync/:type", h.dispatch)
	r.GET("/api/jobs/:id", h.status)
	r.POST("/api/webhooks/sync", WebhookKeyMiddleware(h.Webhook, h.Logger), h.webhook)
}

type syncRequest struct {
	Type       string   `json:"type" form:"type"`
	PlantCodes []string `json:"plant_codes" form:"plant_codes"`
	Date       string   `json:"date" form:"date"`
	StartDate  string   `json:"start_date" form:"start_date"`
	EndDate    string   `json:"end_date" form:"end_date"`
}

type dispatchResponse struct {
	JobID     string          `json:"job_id"`
	Job       string          `json:"job"`
	SyncType  models.SyncType `json:"sync_type"`
	UniqueKey string          `json:"unique_key,omitempty"`
	Queued    time.Time       `json:"queued_at"`
}

// @Summary Dispatch a sync job
// @Tags sync
// @Param type path string true "equipment|running_time|work_orders|equipment_work_order_materials|daily_plant_data|all"
// @Param body body syncRequest false "optional plant codes and dates (YYYY-MM-DD)"
// @Success 202 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/sync/{type} [post]
func (h *SyncHandler) dispatch(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	req.Type = c.Param("type")
	h.enqueue(c, req)
}

// @Summary Trigger a sync from an external system
// @Tags sync
// @Param X-Webhook-Key header string false "webhook key"
// @Param api_key formData string false "webhook key"
// @Param type formData string false "sync type, default all"
// @Success 202 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/webhooks/sync [post]
func (h *SyncHandler) webhook(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	if strings.TrimSpace(req.Type) == "" {
		req.Type = string(models.SyncTypeAll)
	}
	h.enqueue(c, req)
}

func (h *SyncHandler) enqueue(c *gin.Context, req syncRequest) {
	if h.Jobs == nil {
		Error(c, http.StatusInternalServerError, "job queue unavailable", nil)
		return
	}
	syncType, err := models.ParseSyncType(req.Type)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	params, err := req.params()
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	def, err := h.Jobs.Dispatch(c.Request.Context(), syncType, params)
	switch {
	case errors.Is(err, jobs.ErrDuplicateJob):
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrQueueClosed):
		Error(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	h.logger().Info("sync job dispatched via http",
		zap.String("job", def.Name),
		zap.String("job_id", def.ID),
		zap.String("path", c.FullPath()),
	)
	Accepted(c, dispatchResponse{
		JobID:     def.ID,
		Job:       def.Name,
		SyncType:  def.SyncType,
		UniqueKey: def.UniqueKey,
		Queued:    def.EnqueuedAt,
	})
}

// @Summary Get the state of a dispatched job
// @Tags sync
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/jobs/{id} [get]
func (h *SyncHandler) status(c *gin.Context) {
	if h.Status == nil {
		Error(c, http.StatusNotFound, "job not found", nil)
		return
	}
	st, ok := h.Status.Get(strings.TrimSpace(c.Param("id")))
	if !ok {
		Error(c, http.StatusNotFound, "job not found", nil)
		return
	}
	Ok(c, st, nil)
}

func (r syncRequest) params() (service.Params, error) {
	params := service.Params{PlantCodes: splitCodes(r.PlantCodes)}
	for _, field := range []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"date", r.Date, &params.Date},
		{"start_date", r.StartDate, &params.StartDate},
		{"end_date", r.EndDate, &params.EndDate},
	} {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		day, ok := validation.ParseDate(field.value)
		if !ok {
			return params, errors.New(field.name + " must be YYYY-MM-DD")
		}
		*field.dst = &day
	}
	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return params, errors.New("end_date is before start_date")
	}
	return params, nil
}

func (h *SyncHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
