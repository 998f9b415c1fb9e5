package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/taskapi/internal/metrics"
	"github.com/hitoshi/taskapi/internal/middleware"
	"github.com/hitoshi/taskapi/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	AuthRateLimiter   *middleware.RateLimiter // nilの場合は/authにレート制限をかけない
	Metrics           middleware.HTTPMetricsRecorder
	MetricsGatherer   prometheus.Gatherer // nilの場合は/metricsを公開しない

	// サービス
	AuthService   AuthServiceInterface
	TaskService   TaskServiceInterface
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Logging → Recovery → SecurityHeaders → Metrics → CORS
//
// /auth配下にはさらにクライアントIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	// プリフライトはCORSで完結するため、計測はその外側に置く
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
	})

	rootHandler := NewRootHandler(deps.HealthChecker)
	authHandler := NewAuthHandler(deps.AuthService)
	taskHandler := NewTaskHandler(deps.TaskService)

	r.Get("/", rootHandler.Welcome)
	r.Get("/health", rootHandler.Health)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// 認証
	r.Route("/auth", func(r chi.Router) {
		if deps.AuthRateLimiter != nil {
			r.Use(deps.AuthRateLimiter.Middleware())
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// タスク管理
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.CreateTask)
		r.Get("/", taskHandler.ListTasks)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTask)
			r.Post("/", taskHandler.UpdateTask)
			r.Delete("/", taskHandler.DeleteTask)
		})
	})

	return r
}
