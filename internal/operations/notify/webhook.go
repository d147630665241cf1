package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier POSTs alerts as JSON to a generic HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(webhookPayload{
		Title:   alert.Title,
		Message: alert.Message,
		Signal:  alert.Signal,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return &NotificationError{Channel: w.Name(), Err: fmt.Errorf("marshal: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{Channel: w.Name(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &NotificationError{Channel: w.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NotificationError{Channel: w.Name(), Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

type webhookPayload struct {
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Signal  interface{} `json:"signal"`
	TS      string      `json:"ts"`
}
