package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLHealthRepo はdatabase/sqlを使用した疎通確認リポジトリ。
type SQLHealthRepo struct {
	db *sql.DB
}

// NewSQLHealthRepo はSQLHealthRepoを生成する。
func NewSQLHealthRepo(db *sql.DB) *SQLHealthRepo {
	return &SQLHealthRepo{db: db}
}

// Check は SELECT 1 を実行してデータベースとの往復を確認する。
func (r *SQLHealthRepo) Check(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// compile-time interface check
var _ HealthRepository = (*SQLHealthRepo)(nil)
