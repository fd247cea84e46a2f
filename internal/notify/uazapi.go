// Package notify delivers WhatsApp messages through a UAZAPI instance.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidPhone is returned when the destination has no usable digits.
var ErrInvalidPhone = errors.New("telefono invalido")

// Client posts text messages to <BaseURL>/send/text.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("uazapi"),
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers text to phone. phone must already be in international
// format without "+" (e.g. 5491123456789).
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrInvalidPhone
	}
	sendURL := c.baseURL + "/send/text"
	if c.token != "" {
		sendURL += "?token=" + url.QueryEscape(c.token)
	}

	payload, err := json.Marshal(sendTextRequest{Number: phone, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode uazapi request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build uazapi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("send failed", zap.String("phone", phone), zap.Error(err))
		return fmt.Errorf("uazapi request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("send rejected",
			zap.String("phone", phone),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("uazapi http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	c.logger.Info("message sent",
		zap.String("phone", phone),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
