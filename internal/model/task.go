// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーが所有するタスクを表す。
// UserIDは作成後に変更されない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// TaskFilter はタスク一覧の絞り込み種別を表す。
type TaskFilter string

const (
	// TaskFilterAll は全タスクを返すフィルタ。クエリ省略時のデフォルト。
	TaskFilterAll TaskFilter = ""
	// TaskFilterPending は未完了タスクのみを返すフィルタ。
	TaskFilterPending TaskFilter = "PENDING"
	// TaskFilterCompleted は完了済みタスクのみを返すフィルタ。
	TaskFilterCompleted TaskFilter = "COMPLETED"
)

// TaskSort はタスク一覧の作成日時による並び順を表す。
type TaskSort string

const (
	// TaskSortAsc は作成日時の昇順。省略時のデフォルト。
	TaskSortAsc TaskSort = "asc"
	// TaskSortDesc は作成日時の降順。
	TaskSortDesc TaskSort = "desc"
)

// CreateTaskInput はタスク作成の入力を表す。
type CreateTaskInput struct {
	Title       string
	Description string
}

// UpdateTaskInput はタスク更新の部分パッチを表す。
// nilフィールドは変更しない。全フィールドがnilのパッチは拒否される。
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

// IsEmpty は全フィールドがnilの空パッチかどうかを返す。
func (in UpdateTaskInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Completed == nil
}
