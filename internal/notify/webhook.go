package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

// Sender delivers one notification message through its channel
// (email, push or in-app). Implementations do the channel-specific
// transport; the dispatch worker owns retries.
type Sender interface {
	Send(ctx context.Context, msg domain.NotificationMessage) error
}

// WebhookSender posts messages to the delivery gateway that fans out
// to the transactional email, push and chat providers.
type WebhookSender struct {
	url  string
	http *http.Client
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSender) Send(ctx context.Context, msg domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("notification gateway returned %d: %s", res.StatusCode, string(raw))
	}

	return nil
}
