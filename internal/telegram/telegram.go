// Package telegram delivers publications to a channel via the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"passionbot/internal/retry"
)

const (
	captionLimitRunes = 1024
	messageLimitRunes = 4096
)

// Client posts to one chat/channel. Both send methods retry with
// growing delays before giving up.
type Client struct {
	token  string
	chatID string
	http   *http.Client
	log    *slog.Logger
}

func NewClient(token, chatID string, log *slog.Logger) *Client {
	return &Client{
		token:  token,
		chatID: chatID,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// SendPhoto posts a photo by URL with an HTML caption. Captions above the
// Bot API limit are cut.
func (c *Client) SendPhoto(ctx context.Context, photoURL, caption string) error {
	payload := map[string]interface{}{
		"chat_id":    c.chatID,
		"photo":      photoURL,
		"caption":    trimRunes(caption, captionLimitRunes),
		"parse_mode": "HTML",
	}
	return c.send(ctx, "sendPhoto", payload)
}

// SendMessage posts a plain HTML-formatted message without link preview.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     trimRunes(text, messageLimitRunes),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	return c.send(ctx, "sendMessage", payload)
}

func (c *Client) send(ctx context.Context, method string, payload map[string]interface{}) error {
	cfg := retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	return retry.WithRetry(ctx, cfg, func() error {
		if err := c.sendOnce(ctx, method, payload); err != nil {
			c.log.Warn("telegram send failed", "method", method, "error", err)
			return err
		}
		return nil
	})
}

func (c *Client) sendOnce(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/%s", c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}

func trimRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
