// Package notify posts badge-mint records to an operator-configured
// webhook. Delivery is best effort: the mint already succeeded on chain, so
// webhook failures are logged and swallowed, never surfaced to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	maxRetries     = 2 // 3 attempts total
	attemptTimeout = 5 * time.Second
)

// MintRecord describes one minted badge.
type MintRecord struct {
	EventID  string `json:"event_id"`
	Holder   string `json:"holder"`
	Issuer   string `json:"issuer"`
	TxHash   string `json:"tx_hash"`
	MintedAt int64  `json:"minted_at"`
}

// Notifier delivers mint records to one webhook URL. A zero URL disables
// delivery entirely.
type Notifier struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// New builds a notifier. url == "" yields a no-op notifier.
func New(url string, logger *zap.Logger) *Notifier {
	return &Notifier{
		url:    url,
		http:   &http.Client{Timeout: attemptTimeout},
		logger: logger,
	}
}

// BadgeMinted posts the record, retrying transient failures with backoff.
func (n *Notifier) BadgeMinted(ctx context.Context, rec MintRecord) {
	if n.url == "" {
		return
	}

	body, err := json.Marshal(rec)
	if err != nil {
		n.logger.Warn("webhook payload marshal failed", zap.Error(err))
		return
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(n.post(ctx, body))
	})
	if err != nil {
		n.logger.Warn("badge webhook delivery failed",
			zap.String("url", n.url),
			zap.String("tx_hash", rec.TxHash),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("badge webhook delivered",
		zap.String("event_id", rec.EventID),
		zap.String("tx_hash", rec.TxHash),
	)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
