package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
	"github.com/hitoshi/taskdeck/internal/task"
	"github.com/hitoshi/taskdeck/internal/token"
)

// --- インメモリリポジトリ ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email: %s", user.Email)
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]*model.Task)}
}

func (r *memTaskRepo) ListByUserID(ctx context.Context, userID string, filter model.TaskFilter, taskSort model.TaskSort) ([]*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*model.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		switch filter {
		case model.TaskFilterPending:
			if t.Completed {
				continue
			}
		case model.TaskFilterCompleted:
			if !t.Completed {
				continue
			}
		}
		copied := *t
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if taskSort == model.TaskSortDesc {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (r *memTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (r *memTaskRepo) Create(ctx context.Context, t *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *memTaskRepo) Update(ctx context.Context, t *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return model.NewTaskNotFoundError(t.ID)
	}
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *memTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return model.NewTaskNotFoundError(id)
	}
	delete(r.tasks, id)
	return nil
}

// newTestServer は実サービスとインメモリリポジトリでルーター全体を構成する。
func newTestServer(t *testing.T) (http.Handler, func()) {
	t.Helper()

	signer := token.NewSigner("integration-test-secret", 3600)
	resolver := auth.NewResolver(signer, auth.ResolverConfig{})
	authService := auth.NewService(newMemUserRepo(), signer, nil)
	taskService := task.NewService(newMemTaskRepo(), security.NewTextSanitizer())
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	router := NewRouter(&RouterDeps{
		IdentityResolver:  resolver,
		CORSAllowedOrigin: "http://localhost:4200",
		RateLimiter:       rateLimiter,
		AuthService:       authService,
		TaskService:       taskService,
	})

	return router, rateLimiter.Stop
}

// signIn はサインインしてトークンを取り出すヘルパー。
func signIn(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", strings.NewReader(fmt.Sprintf(`{"email":%q}`, email)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp signInResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode sign-in response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	return resp.Token
}

// doJSON は認証付きリクエストを実行するヘルパー。
func doJSON(router http.Handler, method, target, tokenString, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRouter_FullTaskFlow はサインインからタスクのCRUDと他ユーザー403までの一連の流れを検証する。
func TestRouter_FullTaskFlow(t *testing.T) {
	router, stop := newTestServer(t)
	defer stop()

	aliceToken := signIn(t, router, "alice@example.com")
	bobToken := signIn(t, router, "bob@example.com")

	// 作成
	w := doJSON(router, http.MethodPost, "/api/tasks", aliceToken, `{"title":"<b>牛乳を買う</b>","description":"2本"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created taskDataResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	// サニタイズでタグが除去される
	if created.Data.Title != "牛乳を買う" {
		t.Errorf("title = %q, want sanitized %q", created.Data.Title, "牛乳を買う")
	}
	taskID := created.Data.ID

	// 一覧
	w = doJSON(router, http.MethodGet, "/api/tasks", aliceToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list taskListResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != taskID {
		t.Errorf("list = %+v", list.Data)
	}

	// bobの一覧にはaliceのタスクが現れない
	w = doJSON(router, http.MethodGet, "/api/tasks", bobToken, "")
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Data) != 0 {
		t.Errorf("bob's list = %+v, want empty", list.Data)
	}

	// 部分更新
	w = doJSON(router, http.MethodPatch, "/api/tasks/"+taskID, aliceToken, `{"completed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	var patched taskDataResponse
	if err := json.NewDecoder(w.Body).Decode(&patched); err != nil {
		t.Fatalf("failed to decode patch response: %v", err)
	}
	if !patched.Data.Completed {
		t.Error("expected completed=true after patch")
	}
	if patched.Data.Description != "2本" {
		t.Errorf("description = %q, patch should not clear it", patched.Data.Description)
	}

	// 完了済みフィルタ
	w = doJSON(router, http.MethodGet, "/api/tasks?status=COMPLETED", aliceToken, "")
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Data) != 1 {
		t.Errorf("completed list = %+v, want 1 task", list.Data)
	}

	// bobはaliceのタスクに触れない
	w = doJSON(router, http.MethodGet, "/api/tasks/"+taskID, bobToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("cross-user get status = %d, want %d", w.Code, http.StatusForbidden)
	}
	w = doJSON(router, http.MethodDelete, "/api/tasks/"+taskID, bobToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("cross-user delete status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// 所有者の削除
	w = doJSON(router, http.MethodDelete, "/api/tasks/"+taskID, aliceToken, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	// 削除後は404
	w = doJSON(router, http.MethodGet, "/api/tasks/"+taskID, aliceToken, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestRouter_SignInIsIdempotent は同じemailの再サインインが同一ユーザーを返すことを検証する。
func TestRouter_SignInIsIdempotent(t *testing.T) {
	router, stop := newTestServer(t)
	defer stop()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", strings.NewReader(`{"email":"same@example.com"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var first signInResponse
	if err := json.NewDecoder(w.Body).Decode(&first); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// 大文字と空白は正規化されて同じユーザーになる
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login-or-create", strings.NewReader(`{"email":"  SAME@example.com "}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var second signInResponse
	if err := json.NewDecoder(w.Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if first.Data.ID != second.Data.ID {
		t.Errorf("user IDs differ: %q vs %q", first.Data.ID, second.Data.ID)
	}
}

// TestRouter_RequiresAuth は認証なしのタスクアクセスが401になることを検証する。
func TestRouter_RequiresAuth(t *testing.T) {
	router, stop := newTestServer(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 改ざんトークンも401
	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestRouter_Health はヘルスチェックが認証なしで応答することを検証する。
func TestRouter_Health(t *testing.T) {
	router, stop := newTestServer(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"ok":true}` {
		t.Errorf("body = %s, want {\"ok\":true}", body)
	}
}

// TestRouter_UserLookup はGET /api/users/{email}の成功と404を検証する。
func TestRouter_UserLookup(t *testing.T) {
	router, stop := newTestServer(t)
	defer stop()

	signIn(t, router, "known@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users/known@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("lookup status = %d, want %d", w.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/unknown@example.com", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("lookup status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
