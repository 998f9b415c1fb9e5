package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskapi/internal/model"
)

// WelcomeMessage はGET /で返すメッセージ。
const WelcomeMessage = "Welcome to the ToDo API!"

// HealthChecker はデータベース疎通確認のインターフェース。
type HealthChecker interface {
	Check(ctx context.Context) error
}

// RootHandler はウェルカムメッセージとヘルスチェックのHTTPハンドラー。
type RootHandler struct {
	checker HealthChecker
}

// NewRootHandler はRootHandlerを生成する。
func NewRootHandler(checker HealthChecker) *RootHandler {
	return &RootHandler{checker: checker}
}

// Welcome は固定のウェルカムメッセージを返す。
// GET /
func (h *RootHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// Health はデータベースに軽量なクエリを発行し、結果を返す。
// GET /health
func (h *RootHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.Check(r.Context()); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewDatabaseUnavailableError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}
