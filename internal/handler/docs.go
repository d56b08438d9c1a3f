package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterDocs serves a short operator guide at /docs.
func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# CMMS Sync Service

Pulls equipment master data, running hours, work orders, work order materials
and daily plant data from the remote maintenance API into the local database.

## Jobs

Every sync runs as a queued job with up to 3 attempts and linear backoff.
A job that exhausts its attempts is marked permanently failed and raises two
critical notifications. Only one running time job per target date may be
queued or running at a time.

## Routes

- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html
- GET /api/sync-logs
- GET /api/sync-logs/:id
- GET /api/notifications
- POST /api/notifications/:id/read
- POST /api/sync/:type (equipment, running_time, work_orders, equipment_work_order_materials, daily_plant_data, all)
- POST /api/webhooks/sync (X-Webhook-Key header or api_key form field)
- GET /api/jobs/:id (queued, running, retrying, succeeded, permanently_failed, canceled)
`)
	})
}
