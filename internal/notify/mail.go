package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MailSink posts to a transactional mail API. It holds an ordered list
// of API keys and walks them first-success-wins, so a revoked or
// rate-limited key degrades to the next instead of dropping the mail.
type MailSink struct {
	httpc *http.Client
	url   string
	keys  []string
}

func NewMailSink(url string, keys []string) *MailSink {
	return &MailSink{
		httpc: &http.Client{Timeout: 15 * time.Second},
		url:   url,
		keys:  keys,
	}
}

func (m *MailSink) Send(ctx context.Context, to, subject, body string) error {
	if m.url == "" || len(m.keys) == 0 {
		return fmt.Errorf("mail sink not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for i, key := range m.keys {
		if err := m.post(ctx, key, payload); err != nil {
			lastErr = fmt.Errorf("mail key %d: %w", i, err)
			continue
		}
		return nil
	}
	return lastErr
}

func (m *MailSink) post(ctx context.Context, key string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := m.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
