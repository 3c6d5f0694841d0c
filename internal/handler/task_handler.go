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

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// List は指定ユーザーが所有するタスク一覧を返す。
	List(ctx context.Context, userID string, filter model.TaskFilter, sort model.TaskSort) ([]*model.Task, error)
	// Create はタスクを作成する。
	Create(ctx context.Context, userID string, input model.CreateTaskInput) (*model.Task, error)
	// Get は指定IDのタスクを所有権チェック付きで返す。
	Get(ctx context.Context, taskID, userID string) (*model.Task, error)
	// Update はタスクに部分パッチを適用する。
	Update(ctx context.Context, taskID, userID string, input model.UpdateTaskInput) (*model.Task, error)
	// Delete はタスクを所有権チェック付きで削除する。
	Delete(ctx context.Context, taskID, userID string) error
}

// TaskMetricsRecorder はタスク操作のメトリクス記録インターフェース。
// nilを渡した場合は記録しない。
type TaskMetricsRecorder interface {
	RecordTaskCreated()
	RecordTaskUpdated()
	RecordTaskDeleted()
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service  TaskServiceInterface
	recorder TaskMetricsRecorder
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, recorder TaskMetricsRecorder) *TaskHandler {
	return &TaskHandler{
		service:  service,
		recorder: recorder,
	}
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// taskDataResponse は単一タスクのdataエンベロープ。
type taskDataResponse struct {
	Data taskResponse `json:"data"`
}

// taskListResponse はタスク一覧のdataエンベロープ。
type taskListResponse struct {
	Data []taskResponse `json:"data"`
}

// createTaskRequest はタスク作成リクエストのボディ。
// descriptionはキー省略と空文字列を区別するためポインタで受ける。
type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(task *model.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
	}
}

// ListTasks はリクエスト主体が所有するタスク一覧を取得する。
// GET /api/tasks?status=PENDING|COMPLETED&sort=asc|desc
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	filter := model.TaskFilter(r.URL.Query().Get("status"))
	sort := model.TaskSort(r.URL.Query().Get("sort"))

	tasks, err := h.service.List(r.Context(), identity.UserID, filter, sort)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// タスクが0件でもnullではなく空配列を返す
	responses := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toTaskResponse(task))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(taskListResponse{Data: responses})
}

// CreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidBodyError())
		return
	}

	// descriptionはキー省略なら未指定、キーあり空文字列はバリデーションエラー
	input := model.CreateTaskInput{Title: req.Title}
	if req.Description != nil {
		if *req.Description == "" {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
				"説明は空にできません。",
				map[string]string{"description": "must not be empty"},
			))
			return
		}
		input.Description = *req.Description
	}

	task, err := h.service.Create(r.Context(), identity.UserID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTaskCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(taskDataResponse{Data: toTaskResponse(task)})
}

// GetTask は指定IDのタスクを取得する。
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	task, err := h.service.Get(r.Context(), taskID, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(taskDataResponse{Data: toTaskResponse(task)})
}

// UpdateTask はタスクに部分パッチを適用する。
// PATCH /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidBodyError())
		return
	}

	task, err := h.service.Update(r.Context(), taskID, identity.UserID, model.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTaskUpdated()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(taskDataResponse{Data: toTaskResponse(task)})
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), taskID, identity.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTaskDeleted()
	}

	w.WriteHeader(http.StatusNoContent)
}
