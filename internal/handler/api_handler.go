package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskmaintain/internal/calendar"
	"github.com/hitoshi/taskmaintain/internal/directory"
	"github.com/hitoshi/taskmaintain/internal/metrics"
	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/task"
)

// APIHandler はメイン画面と同じ操作をJSONで提供するHTTPハンドラー。
type APIHandler struct {
	tasks     TaskServiceInterface
	stats     StatsServiceInterface
	directory DirectoryServiceInterface
	metrics   metrics.MetricsCollector
	loc       *time.Location
	now       func() time.Time
}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler(
	tasks TaskServiceInterface,
	stats StatsServiceInterface,
	dir DirectoryServiceInterface,
	collector metrics.MetricsCollector,
	loc *time.Location,
) *APIHandler {
	if collector == nil {
		collector = metrics.Noop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &APIHandler{
		tasks:     tasks,
		stats:     stats,
		directory: dir,
		metrics:   collector,
		loc:       loc,
		now:       time.Now,
	}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	StartTime   string `json:"fecha_inicio"`
	EndTime     string `json:"fecha_fin"`
	Notes       string `json:"observaciones"`
}

// updateNotesRequest は備考更新リクエストのボディ。
type updateNotesRequest struct {
	Notes *string `json:"observaciones"`
}

// taskResponse は作成したタスクのAPIレスポンス。
type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"titulo"`
	Description string    `json:"descripcion"`
	StartTime   time.Time `json:"fecha_inicio"`
	EndTime     time.Time `json:"fecha_fin"`
	Notes       string    `json:"observaciones"`
	OwnerID     string    `json:"usuario_id"`
	Status      string    `json:"estado"`
}

// createProfileRequest はユーザー追加リクエストのボディ。
type createProfileRequest struct {
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"email"`
	Company   string `json:"empresa"`
}

// profileResponse は追加したユーザーのAPIレスポンス。
type profileResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"email"`
	Company   string `json:"empresa"`
}

// ListTasks はタスク一覧を返す。
// GET /api/tasks
func (h *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	cards, err := h.tasks.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// CreateTask はタスクを作成する。状態は常にpendienteになる。
// POST /api/tasks
func (h *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	t, err := h.tasks.Create(r.Context(), userID, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordTaskCreated()
	writeJSON(w, http.StatusCreated, taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Notes:       t.Notes,
		OwnerID:     t.OwnerID,
		Status:      string(t.Status),
	})
}

// UpdateNotes はタスクの備考のみを更新する。
// PUT /api/tasks/{id}/notes
func (h *APIHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Notes == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := h.tasks.UpdateNotes(r.Context(), chi.URLParam(r, "id"), *req.Notes); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats はダッシュボードの4つの件数を返す。
// GET /api/stats
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Refresh(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Calendar は今日を中心とした35日分のセルを返す。
// GET /api/calendar
func (h *APIHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, calendar.Build(h.now().In(h.loc)))
}

// ListProfiles はユーザー一覧を返す。qを指定すると名または姓で絞り込む。
// GET /api/profiles?q=検索語
func (h *APIHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	cards, err := h.directory.Filter(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// CreateProfile はユーザーを追加する。
// POST /api/profiles
func (h *APIHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	p, err := h.directory.Create(r.Context(), directory.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Company:   req.Company,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordProfileCreated()
	writeJSON(w, http.StatusCreated, profileResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Company:   p.Company,
	})
}

// Pinger はヘルスチェックでデータベースの疎通確認に使う。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler はヘルスチェックのハンドラーを返す。
// GET /health
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "unavailable",
					"database": err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
