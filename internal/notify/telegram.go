// Package notify delivers run reports through Telegram. An unconfigured
// target degrades to a no-op notifier; delivery failures never abort a
// renewal run.
package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"arcrenew/internal/config"
	"arcrenew/internal/logger"
	"arcrenew/internal/panel"
)

// Notification errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrAPIRejected          = errors.New("telegram api rejected the message")
)

// Notifier is the outbound notification capability.
type Notifier interface {
	Send(text string) error
}

// NopNotifier silently drops messages. Used when no target is
// configured.
type NopNotifier struct{}

// Send implements Notifier.
func (NopNotifier) Send(string) error { return nil }

// TelegramNotifier posts messages through the Telegram bot API.
type TelegramNotifier struct {
	httpClient *http.Client
	apiBase    string
	token      string
	chatID     string
	threadID   string
	logger     *logger.Logger
}

// Ensure both notifiers implement Notifier.
var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = NopNotifier{}
)

// NewNotifier builds a notifier from configuration. Missing token or
// chat id yields the no-op notifier. Messages ride the same SOCKS5
// proxy as panel traffic unless disabled.
func NewNotifier(cfg *config.NotifyConfig, proxyURL string, log *logger.Logger) (Notifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		log.Warn("⚠️ 未配置 Telegram 通知，仅输出到控制台")

		return NopNotifier{}, nil
	}

	if cfg.DisableProxy {
		proxyURL = ""
	}

	transport, err := panel.NewTransport(proxyURL)
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
			Transport: transport,
		},
		apiBase:  cfg.APIBase,
		token:    cfg.BotToken,
		chatID:   cfg.ChatID,
		threadID: cfg.ThreadID,
		logger:   log,
	}, nil
}

type sendMessageRequest struct {
	ChatID          string `json:"chat_id"`
	Text            string `json:"text"`
	MessageThreadID string `json:"message_thread_id,omitempty"`
}

type sendMessageResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one message via the sendMessage endpoint.
func (t *TelegramNotifier) Send(text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	payload := sendMessageRequest{
		ChatID:          t.chatID,
		Text:            text,
		MessageThreadID: t.threadID,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Ok {
		return fmt.Errorf("%w: %s", ErrAPIRejected, result.Description)
	}

	t.logger.Debug("Telegram 通知发送成功")

	return nil
}
