package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/taskapi/internal/model"
)

// SQLTaskRepo はdatabase/sqlを使用したタスクリポジトリ。
type SQLTaskRepo struct {
	db *sql.DB
}

// NewSQLTaskRepo はSQLTaskRepoを生成する。
func NewSQLTaskRepo(db *sql.DB) *SQLTaskRepo {
	return &SQLTaskRepo{db: db}
}

const taskColumns = `id, title, description, is_completed, due_date, created_at, updated_at`

// rowScanner はsql.Rowとsql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask は1行をmodel.Taskに変換する。
func scanTask(s rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var description sql.NullString
	var dueDate sql.NullTime

	if err := s.Scan(
		&task.ID, &task.Title, &description, &task.IsCompleted,
		&dueDate, &task.CreatedAt, &task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		due := model.NormalizeTime(dueDate.Time)
		task.DueDate = &due
	}
	task.CreatedAt = model.NormalizeTime(task.CreatedAt)
	task.UpdatedAt = model.NormalizeTime(task.UpdatedAt)

	return task, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *SQLTaskRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task by ID: %w", err)
	}

	return task, nil
}

// listPreallocCap はList結果の事前確保の上限。limitは上限なしで受け付けるため。
const listPreallocCap = 64

// List はcreated_at降順（同時刻はID降順）でタスクをskip件飛ばしてlimit件返す。
func (r *SQLTaskRepo) List(ctx context.Context, skip, limit int) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0, min(limit, listPreallocCap))
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Count はタスクの全件数を返す。
func (r *SQLTaskRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// Create はタスクを作成し、採番されたIDをtask.IDに設定する。
func (r *SQLTaskRepo) Create(ctx context.Context, task *model.Task) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, is_completed, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		task.Title, task.Description, task.IsCompleted, task.DueDate, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// Update はタスクの全フィールドを上書き保存する。
// 対象行が存在しない場合はErrNotFoundを返す。
func (r *SQLTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, is_completed = $3, due_date = $4, updated_at = $5
		 WHERE id = $6`,
		task.Title, task.Description, task.IsCompleted, task.DueDate, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return checkRowsAffected(result, task.ID)
}

// DeleteByID は指定IDのタスクを削除する。
// 対象行が存在しない場合はErrNotFoundを返す。
func (r *SQLTaskRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return checkRowsAffected(result, id)
}

// checkRowsAffected は影響行数が0の場合にErrNotFoundを返す。
func checkRowsAffected(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*SQLTaskRepo)(nil)
