package token

import (
	"testing"
	"time"
)

// TestSigner_SignAndVerify は発行したトークンが同じ秘密鍵で検証できることを検証する。
func TestSigner_SignAndVerify(t *testing.T) {
	signer := NewSigner("test-secret", 3600)

	tokenString, err := signer.Sign("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if tokenString == "" {
		t.Fatal("Sign returned empty token")
	}

	identity, err := signer.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "user-1")
	}
	if identity.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", identity.Email, "a@b.com")
	}
}

// TestSigner_Verify_WrongSecret は別の秘密鍵で署名されたトークンが拒否されることを検証する。
func TestSigner_Verify_WrongSecret(t *testing.T) {
	tokenString, err := NewSigner("secret-a", 3600).Sign("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := NewSigner("secret-b", 3600).Verify(tokenString); err == nil {
		t.Error("Verify should fail for a token signed with a different secret")
	}
}

// TestSigner_Verify_Expired は期限切れトークンが拒否されることを検証する。
func TestSigner_Verify_Expired(t *testing.T) {
	// 有効期限を過去にするため、maxAgeを負値にして発行する
	signer := NewSigner("test-secret", 1)
	signer.maxAge = -time.Hour

	tokenString, err := signer.Sign("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := signer.Verify(tokenString); err == nil {
		t.Error("Verify should fail for an expired token")
	}
}

// TestSigner_Verify_Malformed は形式不正な文字列が拒否されることを検証する。
func TestSigner_Verify_Malformed(t *testing.T) {
	signer := NewSigner("test-secret", 3600)

	for _, tokenString := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := signer.Verify(tokenString); err == nil {
			t.Errorf("Verify(%q) should fail", tokenString)
		}
	}
}

// TestSigner_NoExpiry はmaxAge=0でexpクレームなしのトークンが発行されることを検証する。
func TestSigner_NoExpiry(t *testing.T) {
	signer := NewSigner("test-secret", 0)

	tokenString, err := signer.Sign("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := signer.Verify(tokenString); err != nil {
		t.Errorf("Verify returned error: %v", err)
	}
}
