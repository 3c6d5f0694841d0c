// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
	"github.com/hitoshi/taskdeck/internal/security"
)

// Service はタスクのCRUDと所有権チェックのサービス層。
// 単一タスクの読み取り・更新・削除は必ずauthorizeOwnerを通る。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
	}
}

// List は指定ユーザーが所有するタスク一覧を返す。
// クエリ自体が所有者にスコープされるため、フィルタ以外の所有権チェックは不要。
// filter/sortの文字列が列挙値でない場合はVALIDATION_ERRORを返す。
func (s *Service) List(ctx context.Context, userID string, filter model.TaskFilter, sort model.TaskSort) ([]*model.Task, error) {
	switch filter {
	case model.TaskFilterAll, model.TaskFilterPending, model.TaskFilterCompleted:
	default:
		return nil, model.NewValidationError(
			fmt.Sprintf("無効なステータスフィルタです: %s", filter),
			map[string]string{"status": "must be PENDING or COMPLETED"},
		)
	}

	switch sort {
	case model.TaskSortAsc, model.TaskSortDesc, model.TaskSort(""):
	default:
		return nil, model.NewValidationError(
			fmt.Sprintf("無効な並び順です: %s", sort),
			map[string]string{"sort": "must be asc or desc"},
		)
	}

	tasks, err := s.taskRepo.ListByUserID(ctx, userID, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
// titleは必須、descriptionは任意だが指定時は空にできない。
// 入力はサニタイズされ、completed=false・作成日時=現在時刻で保存される。
func (s *Service) Create(ctx context.Context, userID string, input model.CreateTaskInput) (*model.Task, error) {
	title := s.sanitizer.Sanitize(input.Title)
	description := s.sanitizer.Sanitize(input.Description)

	if strings.TrimSpace(title) == "" {
		return nil, model.NewValidationError(
			"タイトルを入力してください。",
			map[string]string{"title": "required"},
		)
	}

	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   time.Now(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", userID),
	)

	return task, nil
}

// Get は指定IDのタスクを所有権チェック付きで返す。
func (s *Service) Get(ctx context.Context, taskID, userID string) (*model.Task, error) {
	return s.authorizeOwner(ctx, taskID, userID)
}

// Update はタスクに部分パッチを適用する。
// 空パッチはストアに到達する前にVALIDATION_ERRORで拒否される。
// 所有権チェックが通ってから可変フィールドのみを上書きする。
func (s *Service) Update(ctx context.Context, taskID, userID string, input model.UpdateTaskInput) (*model.Task, error) {
	if input.IsEmpty() {
		return nil, model.NewEmptyPatchError()
	}

	if input.Title != nil {
		title := s.sanitizer.Sanitize(*input.Title)
		if strings.TrimSpace(title) == "" {
			return nil, model.NewValidationError(
				"タイトルは空にできません。",
				map[string]string{"title": "must not be empty"},
			)
		}
		input.Title = &title
	}
	if input.Description != nil {
		description := s.sanitizer.Sanitize(*input.Description)
		if strings.TrimSpace(description) == "" {
			return nil, model.NewValidationError(
				"説明は空にできません。",
				map[string]string{"description": "must not be empty"},
			)
		}
		input.Description = &description
	}

	task, err := s.authorizeOwner(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete はタスクを所有権チェック付きで削除する。
func (s *Service) Delete(ctx context.Context, taskID, userID string) error {
	if _, err := s.authorizeOwner(ctx, taskID, userID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	slog.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
	)

	return nil
}

// authorizeOwner はタスクを取得し、リクエスト主体が所有者であることを確認する。
// タスクが存在しない場合はTASK_NOT_FOUND、所有者が異なる場合はFORBIDDENを返す。
// 2つの失敗種別はHTTP層まで区別されたまま伝播する。
func (s *Service) authorizeOwner(ctx context.Context, taskID, userID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if task.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return task, nil
}
