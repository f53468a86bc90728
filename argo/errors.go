package argo

import "errors"

// Authentication failures. Each maps to one step of the PKCE flow so callers
// (and logs) can tell a bad school code from a broken upstream.
var (
	// ErrChallengeNotFound means the authorization endpoint never redirected
	// to a URL carrying a login_challenge token.
	ErrChallengeNotFound = errors.New("argo: login challenge not found in authorization redirect")

	// ErrCredentialsRejected means the SSO form did not answer with a
	// redirect. The portal signals both a wrong password and an unknown
	// school code this way.
	ErrCredentialsRejected = errors.New("argo: credentials or school code rejected")

	// ErrRedirectChainBroken means a redirect hop arrived without a
	// Location header before the authorization code was seen.
	ErrRedirectChainBroken = errors.New("argo: redirect chain broken before authorization code")

	// ErrAuthCodeNotFound means the final redirect carried no code parameter.
	ErrAuthCodeNotFound = errors.New("argo: authorization code not found in redirect")

	// ErrTokenExchangeFailed means the code-for-token exchange was refused
	// or returned no access token.
	ErrTokenExchangeFailed = errors.New("argo: token exchange failed")
)

// Profile and session failures.
var (
	// ErrNoProfiles means neither profile source returned a student profile
	// for the account.
	ErrNoProfiles = errors.New("argo: no student profiles found for account")

	// ErrProfileIndexInvalid means a caller-supplied profile index is out of
	// range. The caller may retry with a different index.
	ErrProfileIndexInvalid = errors.New("argo: profile index out of range")

	// ErrSessionIncomplete means a session was used before its school code
	// and both tokens were set.
	ErrSessionIncomplete = errors.New("argo: session missing school code or tokens")

	// ErrSessionExpired means the REST API rejected a token that used to
	// work. It is distinct from ErrCredentialsRejected: the fix is to
	// re-authenticate with stored credentials, not to ask for new ones.
	ErrSessionExpired = errors.New("argo: session expired, re-authentication required")
)

// IsAuthFailure reports whether err belongs to the PKCE authentication
// taxonomy. Such errors are fatal to the whole operation and carry no
// partial data.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrCredentialsRejected) ||
		errors.Is(err, ErrRedirectChainBroken) ||
		errors.Is(err, ErrAuthCodeNotFound) ||
		errors.Is(err, ErrTokenExchangeFailed)
}
