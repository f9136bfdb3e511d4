package handler

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/taskmaintain/internal/metrics"
	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	SessionFinder  middleware.SessionFinder
	CSRFConfig     middleware.CSRFConfig
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter

	// 画面
	Renderer *view.Renderer
	Static   fs.FS

	// 認証
	AuthService AuthServiceInterface
	AuthEvents  AuthEventSource
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	TaskService      TaskServiceInterface
	StatsService     StatsServiceInterface
	DirectoryService DirectoryServiceInterface
	PageConfig       PageConfig

	// 運用
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
	DB       Pinger
}

// NewRouter は画面・JSON API・運用エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → SecurityHeaders
//	  画面:  CSRF → OptionalSession → RateLimit(General) [→ RequireUser]
//	  API:   CORS → CSRF → Session → RateLimit(General)
//
// /health、/metrics、静的アセットはセッションとCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Noop{}
	}
	static := deps.Static
	if static == nil {
		static = view.StaticFS()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, collector.RecordHTTPStatus))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.CSRFConfig.CookieSecure))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthEvents, deps.Renderer, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.TaskService, deps.StatsService, deps.DirectoryService, deps.Renderer, collector, deps.PageConfig.Location)
	apiHandler := NewAPIHandler(deps.TaskService, deps.StatsService, deps.DirectoryService, collector, deps.PageConfig.Location)

	// --- セッション不要のルート ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	r.Get("/service-worker.js", serviceWorkerHandler(static))

	// --- 画面 ---
	// ミドルウェアスタック: CSRF → OptionalSession → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", pageHandler.Index)

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
			r.With(middleware.RequireUser(http.HandlerFunc(unauthorizedJSON))).Get("/events", authHandler.Events)
		})

		// ログイン中のみ。未ログインはログイン画面へ戻す
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(http.RedirectHandler("/", http.StatusSeeOther)))

			r.Post("/tasks", pageHandler.CreateTask)
			r.Get("/tasks/{id}/notes", pageHandler.EditNotes)
			r.Post("/tasks/{id}/notes", pageHandler.UpdateNotes)
			r.Post("/users", pageHandler.CreateUser)
		})
	})

	// --- JSON API ---
	// ミドルウェアスタック: CORS → CSRF → Session → RateLimit(General)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins...))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", apiHandler.ListTasks)
			r.Post("/", apiHandler.CreateTask)
			r.Put("/{id}/notes", apiHandler.UpdateNotes)
		})
		r.Get("/stats", apiHandler.Stats)
		r.Get("/calendar", apiHandler.Calendar)
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", apiHandler.ListProfiles)
			r.Post("/", apiHandler.CreateProfile)
		})
	})

	return r
}

// PageConfig は画面とAPIの表示に関する設定。
type PageConfig struct {
	// Location は日時の表示とカレンダーの「今日」の判定に使うタイムゾーン
	Location *time.Location
}

func unauthorizedJSON(w http.ResponseWriter, _ *http.Request) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// serviceWorkerHandler はサイト全体をスコープとするService Workerスクリプトを配信する。
func serviceWorkerHandler(static fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fs.ReadFile(static, "service-worker.js")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Write(body)
	}
}
