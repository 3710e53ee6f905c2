package api

import (
	"testing"
	"time"

	"bistrotrack/server/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	ac := NewAuthController(nil, "test-secret")
	user := &models.User{ID: "user-1", Role: models.RoleManager}

	token, err := ac.sign(user, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := ac.parseToken(token)
	if err != nil {
		t.Fatalf("parseToken failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %s", claims.Subject)
	}
	if claims.Role != string(models.RoleManager) {
		t.Errorf("expected role manager, got %s", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthController(nil, "secret-a")
	verifier := NewAuthController(nil, "secret-b")

	token, err := issuer.sign(&models.User{ID: "user-1", Role: models.RoleViewer}, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := verifier.parseToken(token); err == nil {
		t.Error("expected verification to fail with a different secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	ac := NewAuthController(nil, "test-secret")

	token, err := ac.sign(&models.User{ID: "user-1", Role: models.RoleAdmin}, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := ac.parseToken(token); err == nil {
		t.Error("expected verification to fail for an expired token")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	ac := NewAuthController(nil, "test-secret")
	if _, err := ac.parseToken("not-a-token"); err == nil {
		t.Error("expected verification to fail for a malformed token")
	}
}
