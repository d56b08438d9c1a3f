package notification

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

// NewDispatcher wires the database channel plus whichever external channels
// are configured.
func NewDispatcher(cfg config.NotificationConfig, repo repository.NotificationRepository, logger *zap.Logger) *Dispatcher {
	client := &http.Client{Timeout: 10 * time.Second}
	channels := []Channel{DatabaseChannel{Repo: repo}}
	if strings.TrimSpace(cfg.Telegram.BotToken) != "" && strings.TrimSpace(cfg.Telegram.ChatID) != "" {
		channels = append(channels, TelegramChannel{
			Sender:   TelegramSender{HTTP: client},
			BotToken: strings.TrimSpace(cfg.Telegram.BotToken),
			ChatID:   strings.TrimSpace(cfg.Telegram.ChatID),
		})
	}
	if u := strings.TrimSpace(cfg.Webhook.URL); u != "" {
		channels = append(channels, WebhookChannel{Sender: WebhookSender{HTTP: client}, URL: u})
	}
	return &Dispatcher{Channels: channels, Logger: logger}
}
