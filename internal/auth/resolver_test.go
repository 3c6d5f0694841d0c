package auth

import (
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/token"
)

// --- モック ---

type mockVerifier struct {
	verifyFn func(tokenString string) (*model.Identity, error)
}

func (m *mockVerifier) Verify(tokenString string) (*model.Identity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, model.NewInvalidTokenError()
}

// --- テスト ---

// TestResolver_SignedToken は署名付きBearerトークンから主体が解決されることを検証する。
func TestResolver_SignedToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			if tokenString != "signed-token" {
				t.Errorf("Verify received %q", tokenString)
			}
			return &model.Identity{UserID: "u1", Email: "a@b.com"}, nil
		},
	}
	r := NewResolver(verifier, ResolverConfig{})

	identity, apiErr := r.Resolve("Bearer signed-token", "", "")
	if apiErr != nil {
		t.Fatalf("Resolve returned error: %v", apiErr)
	}
	if identity.UserID != "u1" || identity.Email != "a@b.com" {
		t.Errorf("identity = %+v", identity)
	}
}

// TestResolver_SignedToken_Invalid は検証失敗がINVALID_TOKENになることを検証する。
func TestResolver_SignedToken_Invalid(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{})

	_, apiErr := r.Resolve("Bearer garbage", "", "")
	if apiErr == nil {
		t.Fatal("expected error")
	}
	if apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidToken)
	}
}

// TestResolver_DevToken_Enabled はフラグ有効時にDEV.トークンが受理されることを検証する。
func TestResolver_DevToken_Enabled(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{AllowDevToken: true})

	devToken := token.FormatDevToken("u1", "a@b.com", time.UnixMilli(1700000000000))
	identity, apiErr := r.Resolve("Bearer "+devToken, "", "")
	if apiErr != nil {
		t.Fatalf("Resolve returned error: %v", apiErr)
	}
	if identity.UserID != "u1" || identity.Email != "a@b.com" {
		t.Errorf("identity = %+v", identity)
	}
}

// TestResolver_DevToken_Disabled はフラグ無効時にDEV.トークンが署名検証に回されて
// 拒否されることを検証する。黙って受理してはならない。
func TestResolver_DevToken_Disabled(t *testing.T) {
	verifyCalled := false
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			verifyCalled = true
			return nil, model.NewInvalidTokenError()
		},
	}
	r := NewResolver(verifier, ResolverConfig{AllowDevToken: false})

	devToken := token.FormatDevToken("u1", "a@b.com", time.UnixMilli(1700000000000))
	_, apiErr := r.Resolve("Bearer "+devToken, "", "")
	if apiErr == nil {
		t.Fatal("expected error")
	}
	if !verifyCalled {
		t.Error("dev token should be passed to the signed-token verifier when the flag is off")
	}
}

// TestResolver_DevToken_Malformed は不正な形式のDEV.トークンが拒否されることを検証する。
func TestResolver_DevToken_Malformed(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{AllowDevToken: true})

	_, apiErr := r.Resolve("Bearer DEV.v1.id..email.a@b.com.123", "", "")
	if apiErr == nil {
		t.Fatal("expected error for an empty user ID")
	}
	if apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidToken)
	}
}

// TestResolver_InsecureHeaders_Enabled はフラグ有効時にヘッダーから主体が解決されることを検証する。
func TestResolver_InsecureHeaders_Enabled(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{AllowInsecureHeaderAuth: true})

	identity, apiErr := r.Resolve("", "u1", "a@b.com")
	if apiErr != nil {
		t.Fatalf("Resolve returned error: %v", apiErr)
	}
	if identity.UserID != "u1" || identity.Email != "a@b.com" {
		t.Errorf("identity = %+v", identity)
	}
}

// TestResolver_InsecureHeaders_Disabled はフラグ無効時にヘッダーが無視されることを検証する。
func TestResolver_InsecureHeaders_Disabled(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{})

	_, apiErr := r.Resolve("", "u1", "a@b.com")
	if apiErr == nil {
		t.Fatal("expected error")
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

// TestResolver_InsecureHeaders_PartialHeaders は片方のヘッダーだけでは解決されないことを検証する。
func TestResolver_InsecureHeaders_PartialHeaders(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{AllowInsecureHeaderAuth: true})

	if _, apiErr := r.Resolve("", "u1", ""); apiErr == nil {
		t.Error("expected error when x-user-email is missing")
	}
	if _, apiErr := r.Resolve("", "", "a@b.com"); apiErr == nil {
		t.Error("expected error when x-user-id is missing")
	}
}

// TestResolver_BearerTakesPrecedenceOverHeaders はBearerトークンがヘッダーより優先されることを検証する。
func TestResolver_BearerTakesPrecedenceOverHeaders(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			return &model.Identity{UserID: "from-token", Email: "token@b.com"}, nil
		},
	}
	r := NewResolver(verifier, ResolverConfig{AllowInsecureHeaderAuth: true})

	identity, apiErr := r.Resolve("Bearer t", "from-header", "header@b.com")
	if apiErr != nil {
		t.Fatalf("Resolve returned error: %v", apiErr)
	}
	if identity.UserID != "from-token" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "from-token")
	}
}

// TestResolver_NoCredentials は認証情報が何もない場合にUNAUTHORIZEDになることを検証する。
func TestResolver_NoCredentials(t *testing.T) {
	r := NewResolver(&mockVerifier{}, ResolverConfig{})

	_, apiErr := r.Resolve("", "", "")
	if apiErr == nil {
		t.Fatal("expected error")
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthorized)
	}
}
