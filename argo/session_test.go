package argo

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestResumeHeadersMatchFreshLogin(t *testing.T) {
	p := Profile{
		Index:      0,
		SchoolCode: "SG26696",
		Token:      "profile-token",
		StudentID:  "123",
		SchedaID:   "9",
	}

	// Right after authentication only the access token is known; the
	// profile contributes its own secondary token.
	fresh := Resume("SG26696", TokenPair{AccessToken: "access-1"}).WithProfile(p)

	// A later run rebuilds the session from the persisted pair.
	resumed := Resume("SG26696", TokenPair{AccessToken: "access-1", AuthToken: "profile-token"}).WithProfile(p)

	if !reflect.DeepEqual(fresh.Headers(), resumed.Headers()) {
		t.Errorf("headers differ:\nfresh:   %v\nresumed: %v", fresh.Headers(), resumed.Headers())
	}
}

func TestWithProfileIdempotent(t *testing.T) {
	p := Profile{SchoolCode: "SG11111", Token: "tok", StudentID: "5", SchedaID: "2"}
	s1 := Resume("SG26696", TokenPair{AccessToken: "a", AuthToken: "x"}).WithProfile(p)
	s2 := s1.WithProfile(p)

	if !reflect.DeepEqual(s1.Headers(), s2.Headers()) {
		t.Errorf("reselecting the same profile changed the headers")
	}
}

func TestWithProfileSupersedesScope(t *testing.T) {
	p := Profile{SchoolCode: "SG99999", Token: "child-token"}
	s := Resume("SG26696", TokenPair{AccessToken: "a", AuthToken: "account-token"}).WithProfile(p)

	h := s.Headers()
	if got := h.Get("x-cod-min"); got != "SG99999" {
		t.Errorf("x-cod-min = %q, want the profile's school code", got)
	}
	if got := h.Get("x-auth-token"); got != "child-token" {
		t.Errorf("x-auth-token = %q, want the profile's token", got)
	}
}

func TestHeadersFixedSet(t *testing.T) {
	s := Resume("SG26696", TokenPair{AccessToken: "access-1", AuthToken: "auth-1"})
	h := s.Headers()

	if got := h.Get("Authorization"); got != "Bearer access-1" {
		t.Errorf("Authorization = %q", got)
	}
	if got := h.Get("Content-Type"); got != "Application/json" {
		t.Errorf("Content-Type = %q, want the portal's exact casing", got)
	}
	if got := h.Get("x-cod-min"); got != "SG26696" {
		t.Errorf("x-cod-min = %q", got)
	}
	if _, ok := h["X-Prg-Alunno"]; ok {
		t.Errorf("profile scoping headers present without a selected profile")
	}
}

func TestSelectProfileOutOfRange(t *testing.T) {
	s := Resume("SG26696", TokenPair{AccessToken: "a", AuthToken: "x"})
	profiles := []Profile{{Index: 0}, {Index: 1}}

	if _, err := SelectProfile(s, profiles, 2); !errors.Is(err, ErrProfileIndexInvalid) {
		t.Errorf("index 2 of 2: err = %v, want ErrProfileIndexInvalid", err)
	}
	if _, err := SelectProfile(s, profiles, -1); !errors.Is(err, ErrProfileIndexInvalid) {
		t.Errorf("index -1: err = %v, want ErrProfileIndexInvalid", err)
	}
	if _, err := SelectProfile(s, profiles, 1); err != nil {
		t.Errorf("valid index: err = %v", err)
	}
}

func TestIncompleteSessionRejected(t *testing.T) {
	c := New(WithEndpoints(Endpoints{RESTBase: "http://127.0.0.1:0/"}))

	for _, s := range []Session{
		Resume("", TokenPair{AccessToken: "a", AuthToken: "x"}),
		Resume("SG26696", TokenPair{AccessToken: "a"}),
		Resume("SG26696", TokenPair{AuthToken: "x"}),
	} {
		if _, err := c.Fetch(context.Background(), s); !errors.Is(err, ErrSessionIncomplete) {
			t.Errorf("Fetch with incomplete session: err = %v, want ErrSessionIncomplete", err)
		}
	}
}
