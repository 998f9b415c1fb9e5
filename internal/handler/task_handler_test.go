package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskapi/internal/model"
	"github.com/hitoshi/taskapi/internal/task"
)

// --- モック定義 ---

// mockTaskService はTaskServiceInterfaceのモック実装。
type mockTaskService struct {
	createFn func(ctx context.Context, in task.CreateInput) (*model.Task, error)
	listFn   func(ctx context.Context, skip, limit int) (*model.TaskList, error)
	getFn    func(ctx context.Context, id int64) (*model.Task, error)
	updateFn func(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockTaskService) Create(ctx context.Context, in task.CreateInput) (*model.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockTaskService) List(ctx context.Context, skip, limit int) (*model.TaskList, error) {
	if m.listFn != nil {
		return m.listFn(ctx, skip, limit)
	}
	return &model.TaskList{Tasks: []*model.Task{}, Skip: skip, Limit: limit}, nil
}

func (m *mockTaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewTaskNotFoundError()
}

func (m *mockTaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, model.NewTaskNotFoundError()
}

func (m *mockTaskService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var testTaskTime = time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

func sampleTask(id int64) *model.Task {
	desc := "2 liters"
	return &model.Task{
		ID:          id,
		Title:       "Buy milk",
		Description: &desc,
		CreatedAt:   testTaskTime,
		UpdatedAt:   testTaskTime,
	}
}

func assertValidationError(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if errResp := parseAPIErrorResponse(t, w); errResp.Code != model.ErrCodeValidation {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodeValidation)
	}
}

// --- POST /tasks/ テスト ---

func TestTaskHandler_CreateTask_Success(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(ctx context.Context, in task.CreateInput) (*model.Task, error) {
			if in.Title != "Buy milk" {
				t.Errorf("Title = %q, want %q", in.Title, "Buy milk")
			}
			if in.Description == nil || *in.Description != "2 liters" {
				t.Errorf("Description = %v, want %q", in.Description, "2 liters")
			}
			if in.DueDate == nil || !in.DueDate.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
				t.Errorf("DueDate = %v", in.DueDate)
			}
			tk := sampleTask(1)
			tk.DueDate = in.DueDate
			return tk, nil
		},
	}
	h := NewTaskHandler(svc)

	body := `{"title": "Buy milk", "description": "2 liters", "due_date": "2025-03-01T10:00:00"}`
	w := httptest.NewRecorder()
	h.CreateTask(w, newJSONRequest(http.MethodPost, "/tasks/", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != float64(1) {
		t.Errorf("id = %v, want 1", result["id"])
	}
	if result["is_completed"] != false {
		t.Errorf("is_completed = %v, want false", result["is_completed"])
	}
	if result["due_date"] != "2025-03-01T10:00:00Z" {
		t.Errorf("due_date = %v, want %q", result["due_date"], "2025-03-01T10:00:00Z")
	}
	if result["created_at"] != result["updated_at"] {
		t.Errorf("created_at %v != updated_at %v", result["created_at"], result["updated_at"])
	}
}

func TestTaskHandler_CreateTask_NullableFieldsSerializeAsNull(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(ctx context.Context, in task.CreateInput) (*model.Task, error) {
			return &model.Task{ID: 2, Title: in.Title, CreatedAt: testTaskTime, UpdatedAt: testTaskTime}, nil
		},
	}
	h := NewTaskHandler(svc)

	w := httptest.NewRecorder()
	h.CreateTask(w, newJSONRequest(http.MethodPost, "/tasks/", `{"title": "Minimal"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"description", "due_date"} {
		v, ok := result[key]
		if !ok {
			t.Errorf("%s should be present", key)
		} else if v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
}

func TestTaskHandler_CreateTask_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title": ""}`},
		{"missing title", `{"description": "no title"}`},
		{"title too long", `{"title": "` + strings.Repeat("t", 201) + `"}`},
		{"description too long", `{"title": "ok", "description": "` + strings.Repeat("d", 1001) + `"}`},
		{"invalid due date", `{"title": "ok", "due_date": "next tuesday"}`},
		{"invalid json", `{"title": `},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTaskService{
				createFn: func(ctx context.Context, in task.CreateInput) (*model.Task, error) {
					t.Error("service should not be called for invalid input")
					return nil, nil
				},
			}
			h := NewTaskHandler(svc)

			w := httptest.NewRecorder()
			h.CreateTask(w, newJSONRequest(http.MethodPost, "/tasks/", tt.body))

			assertValidationError(t, w)
		})
	}
}

// 文字数は バイト数ではなく文字数で数える
func TestTaskHandler_CreateTask_TitleLengthCountsCharacters(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(ctx context.Context, in task.CreateInput) (*model.Task, error) {
			return &model.Task{ID: 1, Title: in.Title}, nil
		},
	}
	h := NewTaskHandler(svc)

	body := `{"title": "` + strings.Repeat("あ", 200) + `"}`
	w := httptest.NewRecorder()
	h.CreateTask(w, newJSONRequest(http.MethodPost, "/tasks/", body))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

// --- GET /tasks/ テスト ---

func TestTaskHandler_ListTasks_Defaults(t *testing.T) {
	svc := &mockTaskService{
		listFn: func(ctx context.Context, skip, limit int) (*model.TaskList, error) {
			if skip != 0 || limit != 10 {
				t.Errorf("List called with skip=%d limit=%d, want 0/10", skip, limit)
			}
			return &model.TaskList{
				Tasks: []*model.Task{sampleTask(2), sampleTask(1)},
				Total: 2,
				Skip:  skip,
				Limit: limit,
			}, nil
		},
	}
	h := NewTaskHandler(svc)

	w := httptest.NewRecorder()
	h.ListTasks(w, httptest.NewRequest(http.MethodGet, "/tasks/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result struct {
		Tasks []map[string]interface{} `json:"tasks"`
		Total int                      `json:"total"`
		Skip  int                      `json:"skip"`
		Limit int                      `json:"limit"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Tasks) != 2 || result.Total != 2 || result.Skip != 0 || result.Limit != 10 {
		t.Errorf("result = %+v", result)
	}
}

func TestTaskHandler_ListTasks_EmptyIsArray(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	w := httptest.NewRecorder()
	h.ListTasks(w, httptest.NewRequest(http.MethodGet, "/tasks/", nil))

	if !strings.Contains(w.Body.String(), `"tasks":[]`) {
		t.Errorf("body = %s, want empty tasks array", w.Body.String())
	}
}

func TestTaskHandler_ListTasks_QueryParams(t *testing.T) {
	var gotSkip, gotLimit int
	svc := &mockTaskService{
		listFn: func(ctx context.Context, skip, limit int) (*model.TaskList, error) {
			gotSkip, gotLimit = skip, limit
			return &model.TaskList{Tasks: []*model.Task{}, Total: 50, Skip: skip, Limit: limit}, nil
		},
	}
	h := NewTaskHandler(svc)

	w := httptest.NewRecorder()
	h.ListTasks(w, httptest.NewRequest(http.MethodGet, "/tasks/?skip=20&limit=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotSkip != 20 || gotLimit != 5 {
		t.Errorf("List called with skip=%d limit=%d, want 20/5", gotSkip, gotLimit)
	}
}

func TestTaskHandler_ListTasks_InvalidQueryParams(t *testing.T) {
	tests := []string{
		"/tasks/?skip=abc",
		"/tasks/?limit=1.5",
		"/tasks/?skip=-1",
		"/tasks/?limit=-10",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			svc := &mockTaskService{
				listFn: func(ctx context.Context, skip, limit int) (*model.TaskList, error) {
					t.Error("service should not be called")
					return nil, nil
				},
			}
			h := NewTaskHandler(svc)

			w := httptest.NewRecorder()
			h.ListTasks(w, httptest.NewRequest(http.MethodGet, target, nil))

			assertValidationError(t, w)
		})
	}
}

// --- GET /tasks/{id} テスト ---

func TestTaskHandler_GetTask_Success(t *testing.T) {
	svc := &mockTaskService{
		getFn: func(ctx context.Context, id int64) (*model.Task, error) {
			if id != 7 {
				t.Errorf("id = %d, want 7", id)
			}
			return sampleTask(id), nil
		},
	}
	h := NewTaskHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/tasks/7", nil), "id", "7")
	w := httptest.NewRecorder()
	h.GetTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["title"] != "Buy milk" || result["description"] != "2 liters" {
		t.Errorf("result = %v", result)
	}
}

func TestTaskHandler_GetTask_NotFound_Returns404(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/tasks/999999", nil), "id", "999999")
	w := httptest.NewRecorder()
	h.GetTask(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp.Message != "Task not found" {
		t.Errorf("message = %q, want %q", errResp.Message, "Task not found")
	}
}

func TestTaskHandler_GetTask_InvalidID_Returns422(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{
		getFn: func(ctx context.Context, id int64) (*model.Task, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/tasks/abc", nil), "id", "abc")
	w := httptest.NewRecorder()
	h.GetTask(w, req)

	assertValidationError(t, w)
}

// --- POST /tasks/{id} テスト ---

func TestTaskHandler_UpdateTask_PartialPayload(t *testing.T) {
	var gotPatch model.TaskPatch
	svc := &mockTaskService{
		updateFn: func(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
			gotPatch = patch
			tk := sampleTask(id)
			patch.Apply(tk)
			tk.UpdatedAt = testTaskTime.Add(time.Minute)
			return tk, nil
		},
	}
	h := NewTaskHandler(svc)

	req := withChiURLParam(newJSONRequest(http.MethodPost, "/tasks/1", `{"is_completed": true}`), "id", "1")
	w := httptest.NewRecorder()
	h.UpdateTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if v, ok := gotPatch.IsCompleted.Get(); !ok || !v {
		t.Errorf("IsCompleted patch = %+v, want true", gotPatch.IsCompleted)
	}
	if gotPatch.Title.Set || gotPatch.Description.Set || gotPatch.DueDate.Set {
		t.Errorf("absent fields should not be set: %+v", gotPatch)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["is_completed"] != true || result["title"] != "Buy milk" {
		t.Errorf("result = %v", result)
	}
}

func TestTaskHandler_UpdateTask_NullAndDueDate(t *testing.T) {
	var gotPatch model.TaskPatch
	svc := &mockTaskService{
		updateFn: func(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
			gotPatch = patch
			return sampleTask(id), nil
		},
	}
	h := NewTaskHandler(svc)

	body := `{"title": null, "due_date": "2025-04-01T08:00:00+09:00"}`
	req := withChiURLParam(newJSONRequest(http.MethodPost, "/tasks/1", body), "id", "1")
	w := httptest.NewRecorder()
	h.UpdateTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !gotPatch.Title.Set || !gotPatch.Title.Null {
		t.Errorf("Title patch = %+v, want explicit null", gotPatch.Title)
	}
	due, ok := gotPatch.DueDate.Get()
	if !ok {
		t.Fatal("DueDate patch should carry a value")
	}
	if !due.Equal(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("DueDate = %v, want 2025-03-31T23:00:00Z", due)
	}
}

func TestTaskHandler_UpdateTask_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title": ""}`},
		{"title too long", `{"title": "` + strings.Repeat("t", 201) + `"}`},
		{"description too long", `{"description": "` + strings.Repeat("d", 1001) + `"}`},
		{"wrong type", `{"is_completed": "yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTaskService{
				updateFn: func(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
					t.Error("service should not be called for invalid input")
					return nil, nil
				},
			}
			h := NewTaskHandler(svc)

			req := withChiURLParam(newJSONRequest(http.MethodPost, "/tasks/1", tt.body), "id", "1")
			w := httptest.NewRecorder()
			h.UpdateTask(w, req)

			assertValidationError(t, w)
		})
	}
}

func TestTaskHandler_UpdateTask_NotFound_Returns404(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	req := withChiURLParam(newJSONRequest(http.MethodPost, "/tasks/999999", `{"title": "x"}`), "id", "999999")
	w := httptest.NewRecorder()
	h.UpdateTask(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /tasks/{id} テスト ---

func TestTaskHandler_DeleteTask_Success_Returns204(t *testing.T) {
	var deleted int64
	svc := &mockTaskService{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	h := NewTaskHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/tasks/3", nil), "id", "3")
	w := httptest.NewRecorder()
	h.DeleteTask(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if deleted != 3 {
		t.Errorf("deleted id = %d, want 3", deleted)
	}
}

func TestTaskHandler_DeleteTask_NotFound_Returns404(t *testing.T) {
	svc := &mockTaskService{
		deleteFn: func(ctx context.Context, id int64) error {
			return model.NewTaskNotFoundError()
		},
	}
	h := NewTaskHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/tasks/999999", nil), "id", "999999")
	w := httptest.NewRecorder()
	h.DeleteTask(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestTaskHandler_DeleteTask_InternalError_Returns500(t *testing.T) {
	svc := &mockTaskService{
		deleteFn: func(ctx context.Context, id int64) error {
			return errors.New("connection reset")
		},
	}
	h := NewTaskHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/tasks/1", nil), "id", "1")
	w := httptest.NewRecorder()
	h.DeleteTask(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
