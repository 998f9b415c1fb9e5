package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// pqUniqueViolation はPostgreSQLの一意制約違反エラーコード。
const pqUniqueViolation = "23505"

// PostgreSQLの制約名とカラム名の対応
var pqConstraintColumns = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
}

// DuplicateError は一意制約違反を表す。
// Columnは違反したカラム名（特定できない場合は空文字）。
type DuplicateError struct {
	Column string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *DuplicateError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("unique constraint violated: %v", e.Err)
	}
	return fmt.Sprintf("unique constraint violated on %s: %v", e.Column, e.Err)
}

// Unwrap は元のドライバエラーを返す。
func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// asDuplicateError はドライバの一意制約違反エラーをDuplicateErrorに変換する。
// 一意制約違反でない場合はnilを返す。
func asDuplicateError(err error) *DuplicateError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return &DuplicateError{Column: pqConstraintColumns[pqErr.Constraint], Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &DuplicateError{Column: sqliteUniqueColumn(sqliteErr.Error()), Err: err}
	}

	return nil
}

// sqliteUniqueColumn は "UNIQUE constraint failed: users.username" 形式のメッセージから
// 最初のカラム名を取り出す。
func sqliteUniqueColumn(msg string) string {
	_, cols, ok := strings.Cut(msg, "constraint failed: ")
	if !ok {
		return ""
	}
	first, _, _ := strings.Cut(cols, ",")
	_, col, ok := strings.Cut(strings.TrimSpace(first), ".")
	if !ok {
		return ""
	}
	return col
}
