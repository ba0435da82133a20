// Package bridge is the REST client for the WhatsApp bridge the gateway
// sits behind: message sending, group metadata, and session lifecycle.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BackendCallError is a non-success response from the bridge. These are
// logged with request context and never retried; processing continues with
// stale or partial data.
type BackendCallError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *BackendCallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("bridge %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("bridge %s: status %d", e.Op, e.StatusCode)
}

// Config holds bridge connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Session string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	session    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		session:    cfg.Session,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GroupMetadata is the slice of group info the conversation handler needs.
type GroupMetadata struct {
	Subject     string
	Description *string
}

type groupInfoResponse struct {
	Success bool `json:"success"`
	Chat    struct {
		GroupMetadata struct {
			Subject string  `json:"subject"`
			Desc    *string `json:"desc"`
		} `json:"groupMetadata"`
	} `json:"chat"`
}

// GroupInfo fetches the group's current name and description.
func (c *Client) GroupInfo(ctx context.Context, chatID string) (*GroupMetadata, error) {
	body := map[string]string{"chatId": chatID}
	var out groupInfoResponse
	if err := c.post(ctx, "groupChat/getClassInfo", body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &BackendCallError{Op: "groupChat/getClassInfo", StatusCode: http.StatusOK, Detail: "success=false for chat " + chatID}
	}
	return &GroupMetadata{
		Subject:     out.Chat.GroupMetadata.Subject,
		Description: out.Chat.GroupMetadata.Desc,
	}, nil
}

type successResponse struct {
	Success bool `json:"success"`
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) error {
	body := map[string]string{
		"chatId":      chatID,
		"contentType": "string",
		"content":     content,
	}
	var out successResponse
	if err := c.post(ctx, "client/sendMessage", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return &BackendCallError{Op: "client/sendMessage", StatusCode: http.StatusOK, Detail: "success=false for chat " + chatID}
	}
	return nil
}

// Reply sends a quoted reply to a specific message.
func (c *Client) Reply(ctx context.Context, chatID, messageID, content string) error {
	body := map[string]string{
		"chatId":    chatID,
		"messageId": messageID,
		"content":   content,
	}
	var out successResponse
	if err := c.post(ctx, "message/reply", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return &BackendCallError{Op: "message/reply", StatusCode: http.StatusOK, Detail: "success=false for chat " + chatID}
	}
	return nil
}

// SessionStatus reports whether the bridge session is connected.
func (c *Client) SessionStatus(ctx context.Context) (bool, error) {
	var out successResponse
	if err := c.get(ctx, "session/status", &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// SessionTerminate tears the bridge session down.
func (c *Client) SessionTerminate(ctx context.Context) error {
	var out successResponse
	return c.get(ctx, "session/terminate", &out)
}

// SessionStart brings the bridge session up; a QR scan follows.
func (c *Client) SessionStart(ctx context.Context) error {
	var out successResponse
	return c.get(ctx, "session/start", &out)
}

// SessionQR fetches the pairing QR code as PNG bytes.
func (c *Client) SessionQR(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/session/qr/%s/image", c.baseURL, c.session)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge session/qr: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge session/qr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendCallError{Op: "session/qr", StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, op string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bridge %s: encode request: %w", op, err)
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, op, c.session)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("bridge %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	return c.do(req, op, out)
}

func (c *Client) get(ctx context.Context, op string, out any) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, op, c.session)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &BackendCallError{Op: op, StatusCode: resp.StatusCode, Detail: string(detail)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bridge %s: decode response: %w", op, err)
	}
	return nil
}
