// Package token はセッショントークンのエンコードとデコードを提供する。
//
// トークンは2種類のエンコードが共存する:
//   - 署名付きトークン: HMAC-SHA256で署名されたJWT。本番で使用する。
//   - 開発用トークン: 平文の自己記述形式（DEV.プレフィックス）。署名検証を
//     持たないため、信頼できる環境でのみ使用する。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskdeck/internal/model"
)

// Claims は署名付きトークンのペイロードを表す。
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Signer は署名付きセッショントークンの発行と検証を行う。
type Signer struct {
	secret []byte
	maxAge time.Duration // 0で有効期限なし
}

// NewSigner はSignerを生成する。
// maxAgeSecが0の場合、発行するトークンにexpクレームを含めない。
func NewSigner(secret string, maxAgeSec int) *Signer {
	return &Signer{
		secret: []byte(secret),
		maxAge: time.Duration(maxAgeSec) * time.Second,
	}
}

// Sign は(userId, email)を束ねた署名付きトークンを発行する。
func (s *Signer) Sign(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.maxAge != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify は署名付きトークンを検証し、認証済みの主体を返す。
// 署名不一致、期限切れ、形式不正はすべてINVALID_TOKENエラーになる。
func (s *Signer) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, model.NewInvalidTokenError()
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, model.NewInvalidTokenError()
	}

	return &model.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
