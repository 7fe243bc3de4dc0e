package auth

import (
	"testing"
	"time"

	"github.com/stagepay/pos-core/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("secret", TokenTTLs{User: time.Minute, Terminal: time.Hour})

	token, exp, err := tm.GenerateToken(domain.SubjectTypeTerminal, 12, "8b9f2d1e-6c0a-4f3e-9d7b-5a4c3b2a1f00")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("terminal token expiry off: %v", until)
	}

	claims, err := tm.ParseSubjectToken(token, domain.SubjectTypeTerminal)
	if err != nil {
		t.Fatalf("ParseSubjectToken() error: %v", err)
	}
	if claims.SubjectID != 12 || claims.SessionID != "8b9f2d1e-6c0a-4f3e-9d7b-5a4c3b2a1f00" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseSubjectTokenRejectsOtherSubject(t *testing.T) {
	tm := NewTokenManager("secret", TokenTTLs{})
	token, _, err := tm.GenerateToken(domain.SubjectTypeCustomer, 1, "s")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if _, err := tm.ParseSubjectToken(token, domain.SubjectTypeUser); err == nil {
		t.Fatalf("expected customer token to be rejected as user token")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("one", TokenTTLs{})
	verifier := NewTokenManager("two", TokenTTLs{})
	token, _, err := issuer.GenerateToken(domain.SubjectTypeUser, 1, "s")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestParseTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", TokenTTLs{User: time.Minute})
	issuedAt := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issuedAt }
	token, _, err := tm.GenerateToken(domain.SubjectTypeUser, 1, "s")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	tm.now = time.Now
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("secret", TokenTTLs{})
	if _, err := tm.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected parse error")
	}
}
