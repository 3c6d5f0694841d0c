// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 初回サインイン時にメールアドレスから自動作成され、以降は変更されない。
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Identity は認証済みリクエストの主体を表す。
// トークンまたはヘッダーから解決された (userId, email) の組。
type Identity struct {
	UserID string
	Email  string
}
