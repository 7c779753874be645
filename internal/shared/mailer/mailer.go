// Package mailer dispatches transmittal emails through an HTTP mail API.
// Delivery is an external collaborator: the domain records a transmittal as
// sent regardless of whether the provider confirms, and callers surface
// dispatch failures separately.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Attachment points at a drawing artifact to include with the message.
type Attachment struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// Message is one outbound transmittal email.
type Message struct {
	To          string       `json:"to"`
	ToName      string       `json:"to_name"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Dispatcher is what the domain layer depends on for email delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *Message) error
}

// Client posts messages to the mail API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient creates a mail API client.
func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Dispatch sends one message. Non-2xx responses come back as errors.
func (c *Client) Dispatch(ctx context.Context, msg *Message) error {
	payload := map[string]interface{}{
		"from":        c.from,
		"to":          msg.To,
		"to_name":     msg.ToName,
		"subject":     msg.Subject,
		"body":        msg.Body,
		"attachments": msg.Attachments,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
