// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// HTTPレスポンスの error エンベロープにそのまま変換される。
type APIError struct {
	Code    string            // 機械可読なエラーコード
	Message string            // エラーメッセージ
	Details map[string]string // フィールド単位の補足情報（バリデーション等）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInvalidBody  = "INVALID_REQUEST_BODY"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInvalidToken = "INVALID_TOKEN"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTaskNotFound = "TASK_NOT_FOUND"
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewValidationError は入力バリデーションエラーを生成する。
// detailsにはフィールド名をキーとした不備の説明を渡す。
func NewValidationError(message string, details map[string]string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// NewEmptyPatchError は更新可能フィールドを1つも含まないパッチに対するエラーを生成する。
func NewEmptyPatchError() *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: "更新対象のフィールドを少なくとも1つ指定してください。",
	}
}

// NewInvalidBodyError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidBody,
		Message: "リクエストボディの解析に失敗しました。正しいJSON形式で送信してください。",
	}
}

// NewUnauthorizedError は認証情報が提示されなかった場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "認証が必要です。サインインしてください。",
	}
}

// NewInvalidTokenError はトークンの検証に失敗した場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidToken,
		Message: "トークンが無効です。再度サインインしてください。",
	}
}

// NewForbiddenError は認証済みだが所有者でない操作に対するエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "このタスクを操作する権限がありません。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:    ErrCodeTaskNotFound,
		Message: fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(email string) *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: fmt.Sprintf("指定されたユーザーが見つかりません: %s", email),
	}
}
