// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskapi/internal/model"
)

// ErrNotFound は更新・削除対象の行が存在しなかったことを示す。
var ErrNotFound = errors.New("record not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// email/usernameの一意制約違反時は*DuplicateErrorを返す。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Task, error)

	// List はcreated_at降順でタスクをskip件飛ばしてlimit件返す。
	List(ctx context.Context, skip, limit int) ([]*model.Task, error)

	// Count はタスクの全件数を返す。
	Count(ctx context.Context) (int, error)

	// Create はタスクを作成し、採番されたIDをtask.IDに設定する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクの全フィールドを上書き保存する。
	// 対象行が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, task *model.Task) error

	// DeleteByID は指定IDのタスクを削除する。
	// 対象行が存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id int64) error
}

// HealthRepository はデータベース疎通確認のインターフェース。
type HealthRepository interface {
	// Check は軽量なクエリを1往復させ、失敗した場合はエラーを返す。
	Check(ctx context.Context) error
}
