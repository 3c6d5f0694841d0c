// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService AuthServiceInterface
	TaskService TaskServiceInterface

	// メトリクス。Collectorがnilの場合は記録せず、/metricsも公開しない。
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 認証済みグループでは続けて Auth → RateLimit(General) が適用される。
// サインインルートは認証の外でRateLimit(SignIn)のみ適用される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	taskHandler := NewTaskHandler(deps.TaskService, taskRecorder(deps.Collector))

	// --- 認証不要のルート ---

	r.Get("/health", Health)

	if deps.Collector != nil && deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// サインイン（リモートアドレス単位のレート制限のみ）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.SignInMiddleware())

		r.Post("/api/auth/sign-in", authHandler.SignIn)
		// 旧パス互換のエイリアス
		r.Post("/api/auth/login-or-create", authHandler.SignIn)

		r.Get("/api/users/{email}", authHandler.GetUserByEmail)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.IdentityResolver, authFailureRecorder(deps.Collector)))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Patch("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})
	})

	return r
}

// taskRecorder はnilのCollectorをnilインターフェースに変換する。
func taskRecorder(c *metrics.Collector) TaskMetricsRecorder {
	if c == nil {
		return nil
	}
	return c
}

// authFailureRecorder はnilのCollectorをnilインターフェースに変換する。
func authFailureRecorder(c *metrics.Collector) middleware.AuthFailureRecorder {
	if c == nil {
		return nil
	}
	return c
}
