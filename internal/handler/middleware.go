package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
)

const webhookKeyHeader = "X-Webhook-Key"

// WebhookKeyMiddleware checks the shared webhook key, sent either as the
// X-Webhook-Key header or as the api_key form field. With no key configured
// requests pass with a warning unless RequireKey is set.
func WebhookKeyMiddleware(cfg config.WebhookConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	expected := strings.TrimSpace(cfg.Key)

	return func(c *gin.Context) {
		if expected == "" {
			if cfg.RequireKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apiResponse{
					Code:    http.StatusUnauthorized,
					Message: "webhook key not configured",
				})
				return
			}
			logger.Warn("webhook key not configured, accepting unauthenticated request",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.Next()
			return
		}

		provided := strings.TrimSpace(c.GetHeader(webhookKeyHeader))
		if provided == "" {
			provided = strings.TrimSpace(c.PostForm("api_key"))
		}
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			logger.Warn("webhook rejected", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid webhook key",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request through zap.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		}
		switch {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,"+webhookKeyHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
