package model

import "time"

// Task はToDoタスクを表す。
// ユーザーとの関連は持たない。
type Task struct {
	ID          int64
	Title       string
	Description *string
	IsCompleted bool
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskList はタスク一覧の1ページと全件数を保持する。
type TaskList struct {
	Tasks []*Task
	Total int
	Skip  int
	Limit int
}

// 一覧取得のデフォルト値
const (
	DefaultTaskListSkip  = 0
	DefaultTaskListLimit = 10
)

// TaskPatch はタスクの部分更新内容を表す。
// キーの欠落と明示的なnullを区別して保持するが、
// 現状はどちらも「変更しない」として扱う（フィールドをnullに戻す手段はない）。
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	IsCompleted Optional[bool]
	DueDate     Optional[time.Time]
}

// Apply はnullでない値を持つフィールドだけをタスクに上書きする。
// 1つでもフィールドを上書きした場合はtrueを返す。
func (p TaskPatch) Apply(t *Task) bool {
	changed := false

	if v, ok := p.Title.Get(); ok {
		t.Title = v
		changed = true
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = &v
		changed = true
	}
	if v, ok := p.IsCompleted.Get(); ok {
		t.IsCompleted = v
		changed = true
	}
	if v, ok := p.DueDate.Get(); ok {
		due := NormalizeTime(v)
		t.DueDate = &due
		changed = true
	}

	return changed
}

// NewTask はタイトル・説明・期限から未完了のタスクを生成する。
// created_atとupdated_atには同じ時刻を設定する。
func NewTask(title string, description *string, dueDate *time.Time, now time.Time) *Task {
	now = NormalizeTime(now)
	t := &Task{
		Title:       title,
		Description: description,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dueDate != nil {
		due := NormalizeTime(*dueDate)
		t.DueDate = &due
	}
	return t
}

// Touch はupdated_atをnowに更新する。
// nowが直前のupdated_at以前の場合でも、必ず直前より後の時刻にする。
func (t *Task) Touch(now time.Time) {
	now = NormalizeTime(now)
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}
