package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sdk "hireline/sdk/go"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("s3cret", IssueOptions{Subject: "u1", Name: "Kim Recruiter", Email: "kim@example.com", Roles: []string{"recruiter"}})
	if err != nil {
		t.Fatal(err)
	}
	s, err := Parse(tok, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if s.Subject != "u1" || s.Actor != "Kim Recruiter" || s.Email != "kim@example.com" || len(s.Roles) != 1 {
		t.Fatalf("session = %+v", s)
	}
	if s.ExpiresAt.IsZero() {
		t.Fatal("expiry not read")
	}
	actor, ok := sdk.ActorFromContext(s.Context(context.Background()))
	if !ok || actor != "Kim Recruiter" {
		t.Fatalf("context actor = %q", actor)
	}
}

func TestParseWrongSecret(t *testing.T) {
	tok, err := Issue("one", IssueOptions{Subject: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(tok, "two"); err == nil {
		t.Fatal("expected signature failure")
	}
	s, err := Parse(tok, "")
	if err != nil {
		t.Fatalf("unverified parse: %v", err)
	}
	if s.Actor != "u1" {
		t.Fatalf("actor should fall back to subject, got %q", s.Actor)
	}
}

func TestParseExpired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, err := Issue("s3cret", IssueOptions{Subject: "u1", TTL: time.Hour, Now: past})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(tok, "s3cret"); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("  ", ""); err == nil {
		t.Fatal("empty token accepted")
	}
	if _, err := Parse("not-a-jwt", ""); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	if _, err := Issue("", IssueOptions{Subject: "u1"}); err == nil {
		t.Fatal("missing secret accepted")
	}
	if _, err := Issue("s", IssueOptions{}); err == nil {
		t.Fatal("missing subject accepted")
	}
}

func TestErrNoActor(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "anon@example.com"}).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(tok, "s"); !errors.Is(err, ErrNoActor) {
		t.Fatalf("err = %v", err)
	}
}
