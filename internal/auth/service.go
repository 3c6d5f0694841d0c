package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// maxEmailLength はメールアドレスの最大長。
const maxEmailLength = 254

// TokenIssuer はセッショントークンの発行に必要なインターフェース。
// token.Signerの部分集合として定義する。
type TokenIssuer interface {
	Sign(userID, email string) (string, error)
}

// SignInRecorder はサインインとユーザー作成のメトリクス記録インターフェース。
// nilを渡した場合は記録しない。
type SignInRecorder interface {
	RecordSignIn()
	RecordUserCreated()
}

// Service はユーザーのサインインとトークン発行のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	recorder SignInRecorder
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer TokenIssuer, recorder SignInRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
		recorder: recorder,
	}
}

// LoginOrCreate はメールアドレスでユーザーを検索し、存在しなければ作成する。
// どちらの場合も(userId, email)を束ねたセッショントークンを発行して返す。
//
// 検索と作成の間にトランザクション境界はない。同時の初回サインインは
// users.emailのUNIQUE制約でストアが裁定し、敗者側はエラーになる。
func (s *Service) LoginOrCreate(ctx context.Context, email string) (*model.User, string, error) {
	normalized, verr := normalizeEmail(email)
	if verr != nil {
		return nil, "", verr
	}

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     normalized,
			CreatedAt: time.Now(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
		if s.recorder != nil {
			s.recorder.RecordUserCreated()
		}
	}

	tokenString, err := s.issuer.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordSignIn()
	}

	return user, tokenString, nil
}

// FindByEmail はメールアドレスでユーザーを検索し、トークンを発行して返す。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, string, error) {
	normalized, verr := normalizeEmail(email)
	if verr != nil {
		return nil, "", verr
	}

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, "", model.NewUserNotFoundError(normalized)
	}

	tokenString, err := s.issuer.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, tokenString, nil
}

// normalizeEmail はメールアドレスを正規化（トリム・小文字化）して検証する。
// 不正な形式の場合はVALIDATION_ERRORを返す。
func normalizeEmail(email string) (string, *model.APIError) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	if normalized == "" {
		return "", model.NewValidationError("メールアドレスを入力してください。", map[string]string{"email": "required"})
	}
	if len(normalized) > maxEmailLength {
		return "", model.NewValidationError("メールアドレスが長すぎます。", map[string]string{"email": "too long"})
	}

	at := strings.Index(normalized, "@")
	if at <= 0 || at == len(normalized)-1 || strings.Count(normalized, "@") != 1 {
		return "", model.NewValidationError("メールアドレスの形式が正しくありません。", map[string]string{"email": "invalid format"})
	}

	return normalized, nil
}
