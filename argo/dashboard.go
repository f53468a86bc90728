package argo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// restJSON performs one call against the family REST API with the session's
// header set and decodes the JSON response into out. A 401 or 403 is
// ErrSessionExpired: the tokens used to work and no longer do.
func (c *Client) restJSON(ctx context.Context, s Session, method, path string, body, out any) error {
	if !s.ready() {
		return ErrSessionIncomplete
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("argo: encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoints.RESTBase+path, reader)
	if err != nil {
		return fmt.Errorf("argo: %s request: %w", path, err)
	}
	req.Header = s.Headers()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("argo: %s request: %w", path, err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("argo: %s returned status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("argo: decoding %s response: %w", path, err)
	}
	return nil
}

// dashboard fetches the aggregated dashboard payload. The endpoint returns
// everything changed since the given instant; asking from the start of the
// school year yields the full-year payload the homework extractor needs.
func (c *Client) dashboard(ctx context.Context, s Session, since time.Time) (map[string]any, error) {
	body := map[string]string{
		"dataultimoaggiornamento": since.Format("2006-01-02 15:04:05"),
	}
	var payload map[string]any
	if err := c.restJSON(ctx, s, http.MethodPost, "dashboard/dashboard", body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// fetchSchede lists the enrollment records visible to the session's token.
// Some schools answer with a bare list, others wrap it under data or dati.
func (c *Client) fetchSchede(ctx context.Context, s Session) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := c.restJSON(ctx, s, http.MethodGet, "schede", nil, &raw); err != nil {
		return nil, err
	}

	list := listOrWrapped(raw, "data", "dati", "schede")
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// schoolYearStart returns September 1st of the school year containing now.
func schoolYearStart(now time.Time) time.Time {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	return time.Date(year, time.September, 1, 0, 0, 0, 0, now.Location())
}
