package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/taskapi/internal/model"
)

// SQLUserRepo はdatabase/sqlを使用したユーザーリポジトリ。
// PostgreSQLとSQLiteの両方で同じSQLを使用する。
type SQLUserRepo struct {
	db *sql.DB
}

// NewSQLUserRepo はSQLUserRepoを生成する。
func NewSQLUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db}
}

const userColumns = `id, email, username, hashed_password, is_active, created_at, updated_at`

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *SQLUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.Password,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.CreatedAt = model.NormalizeTime(user.CreatedAt)
	user.UpdatedAt = model.NormalizeTime(user.UpdatedAt)
	return user, nil
}

// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
// email/usernameの一意制約違反時は*DuplicateErrorを返す。
func (r *SQLUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, hashed_password, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		user.Email, user.Username, user.Password, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if dup := asDuplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
