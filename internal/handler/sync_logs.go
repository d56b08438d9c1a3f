package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

type SyncLogReader interface {
	List(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, int64, error)
	Get(ctx context.Context, id uint64) (*models.SyncLog, error)
}

type SyncLogHandler struct {
	Logs SyncLogReader
}

func (h *SyncLogHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync-logs")
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

type syncLogView struct {
	ID                uint64          `json:"id"`
	SyncType          models.SyncType `json:"sync_type"`
	Status            string          `json:"status"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	DurationSeconds   float64         `json:"duration_seconds"`
	RecordsProcessed  int             `json:"records_processed"`
	RecordsSuccess    int             `json:"records_success"`
	RecordsCreated    int             `json:"records_created"`
	RecordsUpdated    int             `json:"records_updated"`
	RecordsFailed     int             `json:"records_failed"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	JobID             *string         `json:"job_id,omitempty"`
	Attempt           int             `json:"attempt"`
	PermanentlyFailed bool            `json:"permanently_failed"`
	Details           json.RawMessage `json:"details,omitempty"`
}

func newSyncLogView(item models.SyncLog) syncLogView {
	view := syncLogView{
		ID:                item.ID,
		SyncType:          item.SyncType,
		Status:            string(item.Status),
		StartedAt:         item.StartedAt,
		CompletedAt:       item.CompletedAt,
		DurationSeconds:   item.Duration().Seconds(),
		RecordsProcessed:  item.RecordsProcessed,
		RecordsSuccess:    item.RecordsSuccess,
		RecordsCreated:    item.RecordsCreated,
		RecordsUpdated:    item.RecordsUpdated,
		RecordsFailed:     item.RecordsFailed,
		ErrorMessage:      item.ErrorMessage,
		JobID:             item.JobID,
		Attempt:           item.Attempt,
		PermanentlyFailed: item.PermanentlyFailed,
	}
	if len(item.Details) > 0 {
		view.Details = json.RawMessage(item.Details)
	}
	return view
}

// @Summary List sync logs
// @Tags sync
// @Param type query string false "sync type"
// @Param status query string false "pending|running|success|failed"
// @Param limit query int false "page size" default(50)
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/sync-logs [get]
func (h *SyncLogHandler) list(c *gin.Context) {
	if h.Logs == nil {
		Error(c, http.StatusInternalServerError, "sync logs unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSyncLogsParams{
		Limit:   limit,
		Offset:  offset,
		OrderBy: "started_at",
		Asc:     boolPtr(false),
	}
	if raw := strQueryPtr(c, "type"); raw != nil {
		syncType, err := models.ParseSyncType(*raw)
		if err != nil {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		params.SyncType = &syncType
	}
	if raw := strQueryPtr(c, "status"); raw != nil {
		status := models.SyncStatus(strings.ToLower(*raw))
		params.Status = &status
	}

	items, total, err := h.Logs.List(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	views := make([]syncLogView, 0, len(items))
	for _, item := range items {
		views = append(views, newSyncLogView(item))
	}
	Ok(c, views, paginationMeta(limit, offset, total))
}

// @Summary Get a sync log
// @Tags sync
// @Param id path int true "sync log id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/sync-logs/{id} [get]
func (h *SyncLogHandler) get(c *gin.Context) {
	if h.Logs == nil {
		Error(c, http.StatusInternalServerError, "sync logs unavailable", nil)
		return
	}
	id, ok := uint64Param(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Logs.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrSyncLogNotFound) {
		Error(c, http.StatusNotFound, "sync log not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, newSyncLogView(*item), nil)
}
