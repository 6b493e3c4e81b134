package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts alerts to a chat webhook (Slack-compatible payload).
type Webhook struct {
	webhookURL string
	httpClient doer
}

func NewWebhook(webhookURL string, httpClient doer) *Webhook {
	return &Webhook{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (w *Webhook) Notify(ctx context.Context, subject, message string) error {
	payload, err := json.Marshal(map[string]any{
		"text": fmt.Sprintf("*%s*\n%s", subject, message),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}
