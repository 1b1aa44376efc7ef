package transport

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tinyland-inc/obridge/pkg/logger"
)

// HTTPPost reports every outbound event to a set of HTTP endpoints. When a
// secret is configured, requests carry an HMAC-SHA1 signature of the body
// in X-Signature so consumers can verify origin.
type HTTPPost struct {
	*BaseTransport

	urls   []string
	secret string
	selfID int64
	client *http.Client
}

func NewHTTPPost(urls []string, secret string, selfID int64, timeout time.Duration) *HTTPPost {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPost{
		BaseTransport: NewBaseTransport("http_post"),
		urls:          urls,
		secret:        secret,
		selfID:        selfID,
		client:        &http.Client{Timeout: timeout},
	}
}

func (t *HTTPPost) Start(ctx context.Context) error {
	t.SetRunning(true)
	return nil
}

func (t *HTTPPost) Stop(ctx context.Context) error {
	t.SetRunning(false)
	t.client.CloseIdleConnections()
	return nil
}

// Push posts the payload to every endpoint. Per-endpoint failures are
// logged and skipped; there is no retry.
func (t *HTTPPost) Push(ctx context.Context, payload []byte) error {
	for _, url := range t.urls {
		if err := t.post(ctx, url, payload); err != nil {
			logger.WarnCF("transport.http_post", "post failed", map[string]any{
				"url": url, "error": err.Error(),
			})
		}
	}
	return nil
}

func (t *HTTPPost) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Self-ID", strconv.FormatInt(t.selfID, 10))
	if t.secret != "" {
		req.Header.Set("X-Signature", "sha1="+Sign(t.secret, payload))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}

// Sign computes the hex HMAC-SHA1 of the payload under the shared secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
