package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("user-1", "admin@villa.local", RoleAdmin, "secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	claims, err := Parse(tok, "secret")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Sub != "user-1" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := Parse(tok, "other-secret"); err == nil {
		t.Fatal("expected signature failure with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	tok, err := NewAccessToken("user-1", "a@b.c", RoleAdmin, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := Parse(tok, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	ok, err := CheckPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("CheckPassword = (%v, %v), want match", ok, err)
	}
	ok, _ = CheckPassword("wrong", hash)
	if ok {
		t.Fatal("wrong password matched")
	}
	ok, _ = CheckPassword("anything", "")
	if ok {
		t.Fatal("empty hash must never match")
	}
}
