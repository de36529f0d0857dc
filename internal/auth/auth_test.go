package auth

import (
	"testing"
	"time"
)

func testManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		Issuer:     "barbershop-backend",
	}
}

func TestTokenUseIsEnforced(t *testing.T) {
	m := testManager()

	access, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	refresh, err := m.NewRefreshToken("admin")
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}

	claims, err := m.Parse(access, UseAccess)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("role: got %q", claims.Role)
	}

	if _, err := m.Parse(access, UseRefresh); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
	if _, err := m.Parse(refresh, UseAccess); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	other := testManager()
	other.Issuer = "some-other-service"
	token, err := other.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if _, err := testManager().Parse(token, UseAccess); err == nil {
		t.Fatal("token with foreign issuer accepted")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !VerifyPassword(hash, "s3cret") {
		t.Fatal("bcrypt hash rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("wrong password accepted against hash")
	}
	if !VerifyPassword("plain-value", "plain-value") {
		t.Fatal("plaintext credential rejected")
	}
	if VerifyPassword("", "anything") {
		t.Fatal("empty stored credential accepted")
	}
}
