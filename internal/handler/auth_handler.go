package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// LoginOrCreate はメールアドレスでユーザーを検索し、存在しなければ作成する。
	LoginOrCreate(ctx context.Context, email string) (*model.User, string, error)
	// FindByEmail はメールアドレスでユーザーを検索する。
	FindByEmail(ctx context.Context, email string) (*model.User, string, error)
}

// AuthHandler はサインインとユーザー検索のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email string `json:"email"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// signInResponse はサインイン成功時のレスポンス。
type signInResponse struct {
	Data  userResponse `json:"data"`
	Token string       `json:"token"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// SignIn はメールアドレスによるサインインを処理する。未登録なら作成する。
// POST /api/auth/sign-in
// POST /api/auth/login-or-create （旧パス互換のエイリアス）
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidBodyError())
		return
	}

	user, tokenString, err := h.service.LoginOrCreate(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signInResponse{
		Data:  toUserResponse(user),
		Token: tokenString,
	})
}

// GetUserByEmail はメールアドレスでユーザーを検索し、トークンを発行して返す。
// GET /api/users/{email}
func (h *AuthHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, tokenString, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signInResponse{
		Data:  toUserResponse(user),
		Token: tokenString,
	})
}
