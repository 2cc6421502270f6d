// Package alerts delivers order, failure and stop-loss notices to a Telegram chat.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"kimp-trend-bot/internal/config"

	"go.uber.org/zap"
)

const (
	telegramBaseURL    = "https://api.telegram.org"
	defaultSendTimeout = 10 * time.Second
	// sendMessage rejects text longer than this many characters.
	maxMessageRunes = 4096
)

// Telegram posts alert text through the Bot API. A nil or disabled notifier drops every message.
type Telegram struct {
	enabled  bool
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegram(cfg config.TelegramConfig, log *zap.Logger) *Telegram {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return newTelegram(cfg, log, telegramBaseURL, &http.Client{Timeout: timeout})
}

func newTelegram(cfg config.TelegramConfig, log *zap.Logger, baseURL string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: defaultSendTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	token := strings.TrimSpace(cfg.Token)
	return &Telegram{
		enabled:  cfg.Enabled,
		token:    token,
		chatID:   strings.TrimSpace(cfg.ChatID),
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(baseURL, "/"), token),
		client:   client,
		log:      log,
	}
}

func (t *Telegram) Enabled() bool {
	return t != nil && t.enabled
}

// Send delivers one alert. Text over the Bot API limit is cut and marked with an ellipsis.
func (t *Telegram) Send(ctx context.Context, message string) error {
	if !t.Enabled() {
		return nil
	}
	if t.token == "" || t.chatID == "" {
		return errors.New("telegram token and chat_id are required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("telegram message is empty")
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: clip(message)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram send failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		desc := strings.TrimSpace(result.Description)
		if desc == "" {
			desc = "unknown telegram error"
		}
		return fmt.Errorf("telegram send failed: %s", desc)
	}
	t.log.Debug("telegram alert sent", zap.Int("chars", utf8.RuneCountInString(message)))
	return nil
}

func clip(message string) string {
	if utf8.RuneCountInString(message) <= maxMessageRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:maxMessageRunes-1]) + "…"
}
