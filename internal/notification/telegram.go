package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

type TelegramSender struct {
	HTTP *http.Client
	// APIBase defaults to https://api.telegram.org.
	APIBase string
}

type telegramSendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (s TelegramSender) Send(ctx context.Context, botToken, chatID, message string) error {
	if botToken == "" || chatID == "" {
		return fmt.Errorf("missing bot_token/chat_id")
	}
	base := strings.TrimRight(s.APIBase, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, url.PathEscape(botToken))
	b, err := json.Marshal(telegramSendMessageRequest{ChatID: chatID, Text: message})
	if err != nil {
		return err
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %d", resp.StatusCode)
	}
	return nil
}

type TelegramChannel struct {
	Sender   TelegramSender
	BotToken string
	ChatID   string
}

func (TelegramChannel) Name() string { return "telegram" }

func (c TelegramChannel) Send(ctx context.Context, msg Message) error {
	text := msg.text()
	if msg.Level == models.NotificationLevelCritical {
		text = "[CRITICAL] " + text
	}
	return c.Sender.Send(ctx, c.BotToken, c.ChatID, text)
}
