package argo

import "net/http"

// Session scopes calls to the REST API to one school, one account and, once
// a profile is selected, one student. It is an immutable value: selecting a
// profile returns a new Session instead of mutating header state, so two
// goroutines can never observe a half-scoped request context.
type Session struct {
	schoolCode string
	tokens     TokenPair
	profile    *Profile
}

// Resume rebuilds a session from a previously issued token pair without any
// network traffic. The headers it produces are byte-for-byte the same as
// those built right after a fresh authentication with the same tokens.
func Resume(schoolCode string, tokens TokenPair) Session {
	return Session{schoolCode: schoolCode, tokens: tokens}
}

// SchoolCode returns the school the session was opened against.
func (s Session) SchoolCode() string { return s.schoolCode }

// Tokens returns the session's token pair for the caller to persist.
func (s Session) Tokens() TokenPair { return s.tokens }

// Profile returns the selected profile, if any.
func (s Session) Profile() (Profile, bool) {
	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}

// ready reports whether the session carries everything the REST API
// requires. No request may be built from a session that isn't.
func (s Session) ready() bool {
	return s.schoolCode != "" && s.tokens.complete()
}

// WithProfile returns a copy of the session scoped to p. Selecting the same
// profile again yields an identical session. The profile's own school code
// and secondary token, when present, supersede the session's: guardian
// accounts can span schools, and every profile carries its own token.
func (s Session) WithProfile(p Profile) Session {
	next := s
	next.profile = &p
	if p.SchoolCode != "" {
		next.schoolCode = p.SchoolCode
	}
	if p.Token != "" {
		next.tokens.AuthToken = p.Token
	}
	return next
}

// SelectProfile scopes s to profiles[index]. An out-of-range index is
// ErrProfileIndexInvalid; the caller may retry with another one.
func SelectProfile(s Session, profiles []Profile, index int) (Session, error) {
	if index < 0 || index >= len(profiles) {
		return Session{}, ErrProfileIndexInvalid
	}
	return s.WithProfile(profiles[index]), nil
}

// Headers derives the fixed request header set. It is a pure function of the
// school code, the token pair and the selected profile; it allocates a fresh
// map on every call so callers can't alias the session's scoping state.
//
// The literal "Application/json" casing is what the mobile app sends; the
// backend has only ever been observed with it, so it is preserved verbatim.
func (s Session) Headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "Application/json")
	h.Set("Accept", "Application/json")
	h.Set("Authorization", "Bearer "+s.tokens.AccessToken)
	h.Set("x-auth-token", s.tokens.AuthToken)
	h.Set("x-cod-min", s.schoolCode)
	if s.profile != nil {
		h.Set("x-prg-alunno", s.profile.StudentID)
		h.Set("x-prg-scheda", s.profile.SchedaID)
	}
	return h
}
