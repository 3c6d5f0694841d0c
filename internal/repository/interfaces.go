// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailにはストア側のUNIQUE制約があり、同時作成の競合はストアが裁定する。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// 所有者スコープの一覧取得とCRUD操作を提供する。
type TaskRepository interface {
	// ListByUserID は指定ユーザーが所有するタスク一覧を返す。
	// filterで完了状態を絞り込み、sortで作成日時の昇順/降順を指定する。
	// 結果は全件マテリアライズされる（ストリームしない）。
	ListByUserID(ctx context.Context, userID string, filter model.TaskFilter, sort model.TaskSort) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	// 所有権ガードの存在確認はこのメソッドを唯一の情報源とする。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクの可変フィールド（title, description, completed）を上書き更新する。
	// 対象IDが存在しない場合はTASK_NOT_FOUNDエラーを返す。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定IDのタスクを削除する。
	// 対象IDが存在しない場合はTASK_NOT_FOUNDエラーを返す。
	Delete(ctx context.Context, id string) error
}
