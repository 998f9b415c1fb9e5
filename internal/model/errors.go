// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, task, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // バリデーションエラー時のフィールド別詳細
}

// FieldError はリクエストの1フィールドに対するバリデーション違反を表す。
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation                = "VALIDATION_ERROR"
	ErrCodeUsernameAlreadyRegistered = "USERNAME_ALREADY_REGISTERED"
	ErrCodeEmailAlreadyRegistered    = "EMAIL_ALREADY_REGISTERED"
	ErrCodeInvalidCredentials        = "INVALID_CREDENTIALS"
	ErrCodeTaskNotFound              = "TASK_NOT_FOUND"
	ErrCodeDatabaseUnavailable       = "DATABASE_UNAVAILABLE"
	ErrCodeInternal                  = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded         = "RATE_LIMIT_EXCEEDED"
	ErrCodeRouteNotFound             = "NOT_FOUND"
	ErrCodeMethodNotAllowed          = "METHOD_NOT_ALLOWED"
)

// NewValidationError はリクエスト形式の検証エラーを生成する。
func NewValidationError(message string, fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "リクエストの内容を確認してください。",
		Fields:   fields,
	}
}

// NewUsernameAlreadyRegisteredError はユーザー名重複エラーを生成する。
func NewUsernameAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameAlreadyRegistered,
		Message:  "Username already registered",
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "Email already registered",
		Category: "auth",
		Action:   "別のメールアドレスを指定するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid username or password",
		Category: "auth",
		Action:   "ユーザー名とパスワードを確認してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Task not found",
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewDatabaseUnavailableError はデータベース接続エラーを生成する。
func NewDatabaseUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeDatabaseUnavailable,
		Message:  "Database connection error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewRouteNotFoundError は存在しないエンドポイントへのリクエストに対するエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  "Not Found",
		Category: "system",
		Action:   "リクエストURLを確認してください。",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドに対するエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "Method Not Allowed",
		Category: "system",
		Action:   "HTTPメソッドを確認してください。",
	}
}
