package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

type NotificationHandler struct {
	Repo repository.NotificationRepository
	Now  func() time.Time
}

func (h *NotificationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/notifications")
	group.GET("", h.list)
	group.POST("/:id/read", h.markRead)
}

type notificationView struct {
	ID        uint64           `json:"id"`
	Level     string           `json:"level"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	SyncType  *models.SyncType `json:"sync_type,omitempty"`
	SyncLogID *uint64          `json:"sync_log_id,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// @Summary List operator notifications
// @Tags notifications
// @Param level query string false "info|critical"
// @Param unread query bool false "only unread"
// @Param limit query int false "page size" default(50)
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/notifications [get]
func (h *NotificationHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListNotificationsParams{
		Limit:      limit,
		Offset:     offset,
		Level:      strQueryPtr(c, "level"),
		UnreadOnly: boolQueryDefault(c, "unread", false),
		OrderBy:    "created_at",
		Asc:        boolPtr(false),
	}
	items, err := h.Repo.ListNotifications(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountNotifications(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	views := make([]notificationView, 0, len(items))
	for _, item := range items {
		view := notificationView{
			ID:        item.ID,
			Level:     item.Level,
			Title:     item.Title,
			Body:      item.Body,
			SyncType:  item.SyncType,
			SyncLogID: item.SyncLogID,
			ReadAt:    item.ReadAt,
			CreatedAt: item.CreatedAt,
		}
		if len(item.Data) > 0 {
			view.Data = json.RawMessage(item.Data)
		}
		views = append(views, view)
	}
	Ok(c, views, paginationMeta(limit, offset, total))
}

// @Summary Mark a notification read
// @Tags notifications
// @Param id path int true "notification id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/notifications/{id}/read [post]
func (h *NotificationHandler) markRead(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, ok := uint64Param(c, "id")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	err := h.Repo.MarkNotificationRead(c.Request.Context(), id, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Error(c, http.StatusNotFound, "notification not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "read_at": now}, nil)
}
