package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// deliver sends n to every configured webhook. Errors are logged, not
// returned.
func (e *Engine) deliver(ctx context.Context, n *Notification) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			slog.Warn("notify: delivery throttled, dropping", "rule", n.Rule, "err", err)
			return
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.sendSlack(ctx, url, n)
		case "teams":
			err = e.sendTeams(ctx, url, n)
		case "http":
			err = e.sendHTTP(ctx, url, n)
		default:
			slog.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("notify: webhook delivery failed",
				"type", wh.Type,
				"rule", n.Rule,
				"err", err,
			)
		} else {
			slog.Debug("notify: webhook delivered",
				"type", wh.Type,
				"rule", n.Rule,
				"state", n.State,
			)
		}
	}
}

func (e *Engine) sendSlack(ctx context.Context, url string, n *Notification) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(n.Severity), n.Message),
	})
	return e.post(ctx, url, body)
}

func (e *Engine) sendTeams(ctx context.Context, url string, n *Notification) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(n.Severity),
		"summary":    n.Rule,
		"title":      fmt.Sprintf("Scoreboard: %s", n.Rule),
		"text":       n.Message,
	}
	body, _ := json.Marshal(payload)
	return e.post(ctx, url, body)
}

func (e *Engine) sendHTTP(ctx context.Context, url string, n *Notification) error {
	body, _ := json.Marshal(map[string]interface{}{"notification": n})
	return e.post(ctx, url, body)
}

func (e *Engine) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "E5484D"
	case "warning":
		return "F5A524"
	default:
		return "6366F1"
	}
}
