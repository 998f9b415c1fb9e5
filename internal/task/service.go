// Package task はタスクの作成・取得・一覧・部分更新・削除を提供する。
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/taskapi/internal/model"
	"github.com/hitoshi/taskapi/internal/repository"
)

// タスクイベント名（メトリクス用）
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventRecorder はタスクイベントの記録インターフェース。
type EventRecorder interface {
	RecordTaskEvent(event string)
}

// CreateInput はタスク作成時の入力値。
type CreateInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
}

// Service はタスクに関するビジネスロジックを提供する。
type Service struct {
	taskRepo repository.TaskRepository
	recorder EventRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(taskRepo repository.TaskRepository, recorder EventRecorder) *Service {
	return &Service{
		taskRepo: taskRepo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Create はタスクを未完了の状態で作成する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Task, error) {
	t := model.NewTask(in.Title, in.Description, in.DueDate, s.now())

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created", slog.Int64("task_id", t.ID))
	s.record(EventCreated)

	return t, nil
}

// List はcreated_at降順のタスク一覧と全件数を返す。
// totalはskip/limitに関係なく全件数である。
func (s *Service) List(ctx context.Context, skip, limit int) (*model.TaskList, error) {
	total, err := s.taskRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks, err := s.taskRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	return &model.TaskList{
		Tasks: tasks,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}

// Get は指定IDのタスクを返す。存在しない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError()
	}
	return t, nil
}

// Update はpatchのうちnullでないフィールドだけを上書きする。
// 変更するフィールドがなくてもupdated_atは更新する。
func (s *Service) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(t)
	t.Touch(s.now())

	if err := s.taskRepo.Update(ctx, t); err != nil {
		// 取得後に削除された場合
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewTaskNotFoundError()
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.record(EventUpdated)
	return t, nil
}

// Delete は指定IDのタスクを削除する。存在しない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.taskRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewTaskNotFoundError()
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	slog.Info("task deleted", slog.Int64("task_id", id))
	s.record(EventDeleted)
	return nil
}

func (s *Service) record(event string) {
	if s.recorder != nil {
		s.recorder.RecordTaskEvent(event)
	}
}
