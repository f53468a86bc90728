// Package web exposes the portal bridge over HTTP: one authenticate-and-fetch
// operation and one token-based resume operation. It holds no server-side
// session state; everything a client needs to come back is in the response.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gconnectapp/gconnect/argo"
	"github.com/gconnectapp/gconnect/httputil"
	"github.com/gconnectapp/gconnect/metrics"
	"github.com/gconnectapp/gconnect/secrets"
	"go.uber.org/zap"
)

// Handler serves the gconnect API.
type Handler struct {
	client     *argo.Client
	codec      *secrets.Codec // nil disables the sealed-credential resume path
	logger     *zap.Logger
	loginLimit func(http.Handler) http.Handler
}

// NewHandler creates the API handler. codec may be nil when no sealing key
// is configured; responses then omit sealedCredentials and an expired sync
// always answers session_expired.
func NewHandler(client *argo.Client, codec *secrets.Codec, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, codec: codec, logger: logger}
}

// WithLoginLimiter installs a middleware wrapped around the credential
// endpoint only; token-based sync stays unthrottled.
func (h *Handler) WithLoginLimiter(mw func(http.Handler) http.Handler) *Handler {
	h.loginLimit = mw
	return h
}

type loginRequest struct {
	SchoolCode   string `json:"schoolCode"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ProfileIndex *int   `json:"profileIndex"`
}

type sessionPayload struct {
	SchoolCode  string `json:"schoolCode"`
	AccessToken string `json:"accessToken"`
	AuthToken   string `json:"authToken"`
}

type fetchResponse struct {
	Success           bool                      `json:"success"`
	MultiProfile      bool                      `json:"multiProfile,omitempty"`
	Profiles          []argo.Profile            `json:"profiles,omitempty"`
	Profile           *argo.Profile             `json:"profile,omitempty"`
	Session           *sessionPayload           `json:"session,omitempty"`
	Token             *argo.TokenInfo           `json:"token,omitempty"`
	SealedCredentials string                    `json:"sealedCredentials,omitempty"`
	Grades            []argo.GradeRecord        `json:"grades"`
	Homework          []argo.HomeworkRecord     `json:"homework"`
	Announcements     []argo.AnnouncementRecord `json:"announcements"`
	Tasks             []Task                    `json:"tasks"`
}

// Login authenticates with school code, username and password, resolves the
// student profile and returns a full data snapshot plus the token pair the
// client must persist.
//
// Multi-child accounts with no profileIndex get the profile list and zero
// records back, so the caller can re-invoke with an explicit choice instead
// of the server guessing which student is wanted. Exactly one profile is
// selected automatically.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.SchoolCode == "" || req.Username == "" || req.Password == "" {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", "schoolCode, username and password are required")
		return
	}

	res, err := h.client.Authenticate(r.Context(), req.SchoolCode, req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	metrics.CountAuth("ok")

	if len(res.Profiles) == 0 {
		httputil.JSONError(w, http.StatusUnprocessableEntity, "no_profiles", "no student profiles for this account")
		return
	}

	// More than one student and no explicit choice: hand the list back
	// without fetching anyone's data.
	if len(res.Profiles) > 1 && req.ProfileIndex == nil {
		httputil.WriteJSON(w, http.StatusOK, fetchResponse{
			Success:       true,
			MultiProfile:  true,
			Profiles:      res.Profiles,
			Grades:        []argo.GradeRecord{},
			Homework:      []argo.HomeworkRecord{},
			Announcements: []argo.AnnouncementRecord{},
			Tasks:         []Task{},
		})
		return
	}

	index := 0
	if req.ProfileIndex != nil {
		index = *req.ProfileIndex
	}
	session, err := argo.SelectProfile(
		argo.Resume(req.SchoolCode, argo.TokenPair{AccessToken: res.AccessToken}),
		res.Profiles, index,
	)
	if err != nil {
		httputil.JSONError(w, http.StatusUnprocessableEntity, "invalid_profile_index", "profile index out of range")
		return
	}

	snap, err := h.client.Fetch(r.Context(), session)
	if err != nil {
		h.writeFetchError(w, err)
		return
	}

	profile, _ := session.Profile()
	resp := h.buildResponse(session, snap)
	resp.Profile = &profile
	if h.codec != nil {
		resp.SealedCredentials = h.codec.SealCredentials(secrets.Credentials{
			SchoolCode: req.SchoolCode,
			Username:   req.Username,
			Password:   req.Password,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type syncRequest struct {
	SchoolCode        string `json:"schoolCode"`
	AccessToken       string `json:"accessToken"`
	AuthToken         string `json:"authToken"`
	ProfileIndex      *int   `json:"profileIndex"`
	SealedCredentials string `json:"sealedCredentials"`
}

// Sync rebuilds a session from a previously issued token pair — no password
// travels on this path — and returns a fresh snapshot. When the tokens have
// gone stale and the request carries sealed credentials, it re-authenticates
// once and answers with a refreshed token pair; otherwise the client gets a
// session_expired error distinct from a credential failure.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.SchoolCode == "" || req.AccessToken == "" || req.AuthToken == "" {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", "schoolCode, accessToken and authToken are required")
		return
	}

	session := argo.Resume(req.SchoolCode, argo.TokenPair{
		AccessToken: req.AccessToken,
		AuthToken:   req.AuthToken,
	})

	snap, err := h.client.Fetch(r.Context(), session)
	if errors.Is(err, argo.ErrSessionExpired) {
		session, snap, err = h.reauthenticate(r.Context(), req)
		if err != nil {
			h.writeFetchError(w, err)
			return
		}
	} else if err != nil {
		h.writeFetchError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.buildResponse(session, snap))
}

// reauthenticate is the recovery path for a stale token pair: open the
// sealed credentials the client stored and run a fresh authentication.
func (h *Handler) reauthenticate(ctx context.Context, req syncRequest) (argo.Session, *argo.Snapshot, error) {
	if h.codec == nil || req.SealedCredentials == "" {
		return argo.Session{}, nil, argo.ErrSessionExpired
	}
	creds, err := h.codec.OpenCredentials(req.SealedCredentials)
	if err != nil {
		h.logger.Warn("sealed credentials did not open", zap.Error(err))
		return argo.Session{}, nil, argo.ErrSessionExpired
	}

	h.logger.Info("token pair stale, re-authenticating", zap.String("school", creds.SchoolCode))
	res, err := h.client.Authenticate(ctx, creds.SchoolCode, creds.Username, creds.Password)
	if err != nil {
		return argo.Session{}, nil, err
	}
	metrics.CountAuth("ok")

	index := 0
	if req.ProfileIndex != nil {
		index = *req.ProfileIndex
	}
	session, err := argo.SelectProfile(
		argo.Resume(creds.SchoolCode, argo.TokenPair{AccessToken: res.AccessToken}),
		res.Profiles, index,
	)
	if err != nil {
		return argo.Session{}, nil, err
	}

	snap, err := h.client.Fetch(ctx, session)
	if err != nil {
		return argo.Session{}, nil, err
	}
	return session, snap, nil
}

func (h *Handler) buildResponse(session argo.Session, snap *argo.Snapshot) fetchResponse {
	tokens := session.Tokens()
	resp := fetchResponse{
		Success: true,
		Session: &sessionPayload{
			SchoolCode:  session.SchoolCode(),
			AccessToken: tokens.AccessToken,
			AuthToken:   tokens.AuthToken,
		},
		Grades:        snap.Grades,
		Homework:      snap.Homework,
		Announcements: snap.Announcements,
		Tasks:         TasksFromHomework(snap.Homework),
	}
	if info, err := argo.InspectToken(tokens.AccessToken); err == nil {
		resp.Token = info
	}
	return resp
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, argo.ErrCredentialsRejected):
		metrics.CountAuth("credentials_rejected")
		httputil.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "credentials or school code rejected")
	case argo.IsAuthFailure(err):
		metrics.CountAuth("upstream_error")
		h.logger.Error("authentication flow failed", zap.Error(err))
		httputil.JSONError(w, http.StatusBadGateway, "upstream_auth_error", "authentication flow failed upstream")
	default:
		metrics.CountAuth("upstream_error")
		h.logger.Error("authentication failed", zap.Error(err))
		httputil.JSONError(w, http.StatusBadGateway, "auth_failed", "authentication failed")
	}
}

func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, argo.ErrSessionExpired):
		httputil.JSONError(w, http.StatusUnauthorized, "session_expired", "token pair is stale; authenticate again")
	case errors.Is(err, argo.ErrProfileIndexInvalid):
		httputil.JSONError(w, http.StatusUnprocessableEntity, "invalid_profile_index", "profile index out of range")
	case errors.Is(err, argo.ErrCredentialsRejected):
		httputil.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "stored credentials rejected")
	default:
		h.logger.Error("fetch failed", zap.Error(err))
		httputil.JSONError(w, http.StatusBadGateway, "fetch_failed", "could not fetch records from the portal")
	}
}
