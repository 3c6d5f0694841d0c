// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/model"
)

const (
	insecureUserIDHeader = "x-user-id"
	insecureEmailHeader  = "x-user-email"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済み主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityResolver は認証情報から主体を解決するインターフェース。
// auth.Resolverとして実装される。
type IdentityResolver interface {
	Resolve(authorization, headerUserID, headerEmail string) (*model.Identity, *model.APIError)
}

// AuthFailureRecorder は認証失敗のメトリクス記録インターフェース。
// nilを渡した場合は記録しない。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// NewAuthMiddleware はBearerトークン（または設定時のみ無検証ヘッダー）から
// リクエストの主体を解決するミドルウェアを返す。
// 解決した主体をリクエストコンテキストに注入する。
// 解決できないリクエストには401をエラーエンベロープで返す。
func NewAuthMiddleware(resolver IdentityResolver, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, apiErr := resolver.Resolve(
				r.Header.Get("Authorization"),
				r.Header.Get(insecureUserIDHeader),
				r.Header.Get(insecureEmailHeader),
			)
			if apiErr != nil {
				if recorder != nil {
					recorder.RecordAuthFailure(apiErr.Code)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済み主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに認証済み主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
