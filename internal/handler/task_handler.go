package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/taskapi/internal/model"
	"github.com/hitoshi/taskapi/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Create(ctx context.Context, in task.CreateInput) (*model.Task, error)
	List(ctx context.Context, skip, limit int) (*model.TaskList, error)
	Get(ctx context.Context, id int64) (*model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id int64) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string           `json:"title" validate:"min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	DueDate     *model.Timestamp `json:"due_date"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
// キーの欠落とnullを区別するためOptionalで受ける。
type updateTaskRequest struct {
	Title       model.Optional[string]          `json:"title"`
	Description model.Optional[string]          `json:"description"`
	IsCompleted model.Optional[bool]            `json:"is_completed"`
	DueDate     model.Optional[model.Timestamp] `json:"due_date"`
}

// Validate は値を持つフィールドだけを作成時と同じ制約で検証する。
func (req *updateTaskRequest) Validate() error {
	var fields []model.FieldError
	if v, ok := req.Title.Get(); ok {
		if fe := validateVar("title", v, "min=1,max=200"); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if v, ok := req.Description.Get(); ok {
		if fe := validateVar("description", v, "max=1000"); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if len(fields) > 0 {
		return model.NewValidationError("request validation failed", fields...)
	}
	return nil
}

func (req *updateTaskRequest) toPatch() model.TaskPatch {
	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if req.DueDate.Set {
		patch.DueDate = model.Optional[time.Time]{
			Value: req.DueDate.Value.Time,
			Set:   true,
			Null:  req.DueDate.Null,
		}
	}
	return patch
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// taskListResponse はタスク一覧のAPIレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
	Total int            `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// CreateTask はタスクを作成する。
// POST /tasks/
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	in := task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		due := req.DueDate.Time
		in.DueDate = &due
	}

	t, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

// ListTasks はタスク一覧をcreated_at降順で返す。
// GET /tasks/?skip=0&limit=10
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	skip, err := parseNonNegativeIntQuery(r, "skip", model.DefaultTaskListSkip)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	limit, err := parseNonNegativeIntQuery(r, "limit", model.DefaultTaskListLimit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	list, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := taskListResponse{
		Tasks: make([]taskResponse, 0, len(list.Tasks)),
		Total: list.Total,
		Skip:  list.Skip,
		Limit: list.Limit,
	}
	for _, t := range list.Tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetTask はタスク詳細を取得する。
// GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// UpdateTask はタスクを部分更新する。nullまたは欠落したフィールドは変更しない。
// POST /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	t, err := h.service.Update(r.Context(), id, req.toPatch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// DeleteTask はタスクを削除する。
// DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
