// Package providers holds HTTP clients for third-party event providers. Each client
// normalizes provider records into domain.ExternalEvent.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

const pageSize = "20"

// getJSON performs a GET and decodes a JSON body. Failures become *domain.UpstreamError
// with a short reason; provider response bodies are never included.
func getJSON(ctx context.Context, client *http.Client, provider domain.Provider, rawURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		reason := "provider unreachable"
		var uerr *url.Error
		if ctx.Err() != nil || (errors.As(err, &uerr) && uerr.Timeout()) {
			reason = "provider timed out"
		}
		return &domain.UpstreamError{Provider: provider, Reason: reason}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &domain.UpstreamError{Provider: provider, Reason: fmt.Sprintf("provider returned status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &domain.UpstreamError{Provider: provider, Reason: "malformed provider response"}
	}
	return nil
}

func setIf(v url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		v.Set(key, value)
	}
}

// parseTime accepts RFC 3339, naive UTC timestamps and bare dates.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
