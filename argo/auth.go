package argo

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	challengePattern = regexp.MustCompile(`login_challenge=([0-9a-f]+)`)
	codePattern      = regexp.MustCompile(`code=([0-9a-zA-Z_.-]+)`)
)

// maxRedirectHops caps the manual redirect walk. The real portal needs three
// hops; anything past ten is a loop.
const maxRedirectHops = 10

// Authenticate replicates the mobile app's Authorization-Code-with-PKCE flow
// without a browser and returns the bearer access token together with the
// student profiles visible to the account, each carrying its own secondary
// token.
//
// The flow is four upstream steps: derive a verifier/challenge pair and
// request an authorization URL, post the credentials to the SSO form, walk
// the redirect chain by hand until an authorization code appears, and
// exchange the code for tokens. Each step has its own sentinel error (see
// errors.go). No state outlives the call; the cookie jar the SSO endpoint
// requires is created fresh every time.
func (c *Client) Authenticate(ctx context.Context, schoolCode, username, password string) (*AuthResult, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("argo: cookie jar: %w", err)
	}

	// browse follows redirects (the authorization endpoint bounces through
	// the SSO frontend before exposing the login challenge); hop does not,
	// because the code must be read off a Location header that ends in a
	// custom-scheme URL no HTTP client could actually follow.
	browse := &http.Client{
		Transport: c.http.Transport,
		Timeout:   c.http.Timeout,
		Jar:       jar,
	}
	hop := &http.Client{
		Transport: c.http.Transport,
		Timeout:   c.http.Timeout,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	verifier := oauth2.GenerateVerifier()
	conf := c.oauthConfig()

	loginChallenge, err := c.fetchLoginChallenge(ctx, browse, conf, verifier)
	if err != nil {
		return nil, err
	}

	location, err := c.submitCredentials(ctx, hop, loginChallenge, schoolCode, username, password)
	if err != nil {
		return nil, err
	}

	code, err := c.walkRedirects(ctx, hop, location)
	if err != nil {
		return nil, err
	}

	tctx := context.WithValue(ctx, oauth2.HTTPClient, browse)
	tok, err := conf.Exchange(tctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrTokenExchangeFailed
	}

	profiles, err := c.providerLogin(ctx, schoolCode, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("argo: profile listing after token exchange: %w", err)
	}

	c.logger.Info("authenticated",
		zap.String("school", schoolCode),
		zap.Int("profiles", len(profiles)),
	)
	return &AuthResult{AccessToken: tok.AccessToken, Profiles: profiles}, nil
}

// Login is the password path of session building: it authenticates and
// returns a session scoped to the account's first profile, plus the full
// profile list for callers that want to offer a choice. The token path needs
// no network at all — see Resume.
func (c *Client) Login(ctx context.Context, schoolCode, username, password string) (Session, []Profile, error) {
	res, err := c.Authenticate(ctx, schoolCode, username, password)
	if err != nil {
		return Session{}, nil, err
	}
	if len(res.Profiles) == 0 {
		return Session{}, nil, ErrNoProfiles
	}
	first := res.Profiles[0]
	s := Resume(schoolCode, TokenPair{
		AccessToken: res.AccessToken,
		AuthToken:   first.Token,
	}).WithProfile(first)
	return s, res.Profiles, nil
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.endpoints.ClientID,
		RedirectURL: c.endpoints.RedirectURI,
		Scopes:      c.endpoints.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.endpoints.AuthURL,
			TokenURL: c.endpoints.TokenURL,
		},
	}
}

// fetchLoginChallenge requests the authorization URL with prompt=login (so a
// lingering provider cookie session can never skip the credential form) and
// extracts the login challenge from wherever the redirects land.
func (c *Client) fetchLoginChallenge(ctx context.Context, browse *http.Client, conf *oauth2.Config, verifier string) (string, error) {
	authURL := conf.AuthCodeURL(
		randomToken(24),
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "login"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", fmt.Errorf("argo: authorization request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := browse.Do(req)
	if err != nil {
		return "", fmt.Errorf("argo: authorization request: %w", err)
	}
	defer drain(resp.Body)

	finalURL := resp.Request.URL.String()
	m := challengePattern.FindStringSubmatch(finalURL)
	if m == nil {
		c.logger.Debug("no login challenge in authorization redirect",
			zap.String("url", resp.Request.URL.Redacted()))
		return "", ErrChallengeNotFound
	}
	return m[1], nil
}

// submitCredentials posts the SSO form. Success is signaled purely by the
// presence of a Location header; the portal answers a plain 200 page for a
// wrong password and for an unknown school code alike.
func (c *Client) submitCredentials(ctx context.Context, hop *http.Client, loginChallenge, schoolCode, username, password string) (string, error) {
	form := url.Values{
		"challenge":              {loginChallenge},
		"client_id":              {c.endpoints.ClientID},
		"prefill":                {"true"},
		"famiglia_customer_code": {schoolCode},
		"username":               {username},
		"password":               {password},
		"login":                  {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("argo: login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := hop.Do(req)
	if err != nil {
		return "", fmt.Errorf("argo: login request: %w", err)
	}
	defer drain(resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrCredentialsRejected
	}
	return location, nil
}

// walkRedirects issues GETs with redirects disabled until a Location value
// contains an authorization code. Relative hops are resolved against the URL
// that produced them.
func (c *Client) walkRedirects(ctx context.Context, hop *http.Client, location string) (string, error) {
	base, err := url.Parse(c.endpoints.LoginURL)
	if err != nil {
		return "", fmt.Errorf("argo: login url: %w", err)
	}

	for i := 0; i < maxRedirectHops; i++ {
		if strings.Contains(location, "code=") {
			m := codePattern.FindStringSubmatch(location)
			if m == nil {
				return "", ErrAuthCodeNotFound
			}
			return m[1], nil
		}

		next, err := resolveLocation(base, location)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRedirectChainBroken, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next.String(), nil)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRedirectChainBroken, err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := hop.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRedirectChainBroken, err)
		}
		drain(resp.Body)

		location = resp.Header.Get("Location")
		if location == "" {
			return "", ErrRedirectChainBroken
		}
		base = next
	}
	return "", fmt.Errorf("%w: more than %d hops", ErrRedirectChainBroken, maxRedirectHops)
}

func resolveLocation(base *url.URL, location string) (*url.URL, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() && base != nil {
		u = base.ResolveReference(u)
	}
	return u, nil
}

// providerLogin registers the fresh access token with the family API and
// returns the account's profiles, each with its own secondary token. For
// every profile one supplementary lookup resolves name, class and the
// numeric scoping ids; that lookup is best effort and never fails the
// authentication.
func (c *Client) providerLogin(ctx context.Context, schoolCode, accessToken string) ([]Profile, error) {
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
	req.Header.Set("Content-Type", "Application/json")
	req.Header.Set("Accept", "Application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("login endpoint returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}

	profiles := make([]Profile, 0, len(parsed.Data))
	for i, entry := range parsed.Data {
		p := Profile{
			Index:      i,
			SchoolCode: schoolCode,
			Token:      firstString(entry, "token", "x-auth-token"),
			Raw:        entry,
		}
		if al, ok := entry["alunno"].(map[string]any); ok {
			p.DisplayName = joinName(firstString(al, "desNome", "nome"), firstString(al, "desCognome", "cognome"))
		}

		if err := c.describeProfile(ctx, &p, accessToken); err != nil {
			// Leave name/class empty rather than failing the whole login.
			c.logger.Debug("profile lookup failed",
				zap.Int("index", i), zap.Error(err))
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// describeProfile fills p from the schede endpoint using the profile's own
// token. Field names vary by school, so every value is read through the
// alias helpers.
func (c *Client) describeProfile(ctx context.Context, p *Profile, accessToken string) error {
	if p.Token == "" {
		return fmt.Errorf("profile %d has no token", p.Index)
	}

	s := Resume(p.SchoolCode, TokenPair{AccessToken: accessToken, AuthToken: p.Token})
	schede, err := c.fetchSchede(ctx, s)
	if err != nil {
		return err
	}
	if len(schede) == 0 {
		return fmt.Errorf("profile %d: empty schede response", p.Index)
	}

	applyScheda(p, schede[0])
	return nil
}

// applyScheda copies identity fields out of one scheda map, keeping whatever
// was already set when an alias is missing.
func applyScheda(p *Profile, scheda map[string]any) {
	if name := schedaDisplayName(scheda); name != "" {
		p.DisplayName = name
	}
	if class := firstString(scheda, "desDenominazione", "desClasse", "classe"); class != "" {
		p.SchoolClass = class
	}
	if id := firstString(scheda, "prgAlunno", "prg_alunno"); id != "" {
		p.StudentID = id
	}
	if id := firstString(scheda, "prgScheda", "prg_scheda"); id != "" {
		p.SchedaID = id
	}
	if code := firstString(scheda, "codMin", "cod_min"); code != "" {
		p.SchoolCode = code
	}
}

func schedaDisplayName(scheda map[string]any) string {
	if name := firstString(scheda, "desAlunno"); name != "" {
		return name
	}
	if al, ok := scheda["alunno"].(map[string]any); ok {
		return joinName(firstString(al, "desNome", "nome"), firstString(al, "desCognome", "cognome"))
	}
	return ""
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// randomToken returns n bytes of entropy as unpadded URL-safe base64.
func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("argo: rand: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// drain consumes and closes a response body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
