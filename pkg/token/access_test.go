package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerify(t *testing.T) {
	secret := []byte("secret")
	tok, err := GenerateAccessToken("u42", secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := VerifyToken(tok, secret)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID() != "u42" {
		t.Fatalf("UserID() = %q, want u42", claims.UserID())
	}

	if _, err := VerifyToken(tok, []byte("other")); err == nil {
		t.Fatal("token verified with a wrong key")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := []byte("secret")
	tok, err := GenerateAccessToken("u1", secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := VerifyToken(tok, secret); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyToken_FallsBackToJTI(t *testing.T) {
	secret := []byte("secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := VerifyToken(tok, secret)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID() != "7" {
		t.Fatalf("UserID() = %q, want 7", claims.UserID())
	}
}

func TestVerifyToken_RejectsNoneAlg(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(tok, []byte("secret")); err == nil {
		t.Fatal("unsigned token accepted")
	}
}
