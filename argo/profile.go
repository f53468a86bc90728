package argo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Profiles enumerates the student profiles reachable from the session's
// account. Some schools only populate the schede endpoint, others only the
// provider's login listing, so both are tried in that order — stopping at
// the first non-empty result so a profile can never appear twice.
func (c *Client) Profiles(ctx context.Context, s Session) ([]Profile, error) {
	schede, err := c.fetchSchede(ctx, s)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionIncomplete) {
			return nil, err
		}
		c.logger.Debug("schede profile source failed", zap.Error(err))
	}
	if len(schede) > 0 {
		profiles := make([]Profile, 0, len(schede))
		for i, scheda := range schede {
			p := Profile{
				Index:      i,
				SchoolCode: s.SchoolCode(),
				Token:      s.Tokens().AuthToken,
				Raw:        scheda,
			}
			applyScheda(&p, scheda)
			profiles = append(profiles, p)
		}
		return profiles, nil
	}

	profiles, err := c.listingProfiles(ctx, s)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, err
		}
		c.logger.Debug("listing profile source failed", zap.Error(err))
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	return profiles, nil
}

// listingProfiles re-runs the provider's login listing with the session's
// access token. It is the same call Authenticate makes, reused here for
// schools whose schede endpoint answers empty.
func (c *Client) listingProfiles(ctx context.Context, s Session) ([]Profile, error) {
	if !s.ready() {
		return nil, ErrSessionIncomplete
	}

	body := map[string]string{
		"clientID":                randomToken(48),
		"lista-x-auth-token":      "[]",
		"x-auth-token-corrente":   "null",
		"lista-opzioni-notifiche": "{}",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.RESTBase+"login", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header = s.Headers()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrSessionExpired
	}

	var parsed struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(parsed.Data))
	for i, entry := range parsed.Data {
		p := Profile{
			Index:      i,
			SchoolCode: s.SchoolCode(),
			Token:      firstString(entry, "token", "x-auth-token"),
			Raw:        entry,
		}
		if al, ok := entry["alunno"].(map[string]any); ok {
			p.DisplayName = joinName(firstString(al, "desNome", "nome"), firstString(al, "desCognome", "cognome"))
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
