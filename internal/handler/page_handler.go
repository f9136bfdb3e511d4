package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskmaintain/internal/calendar"
	"github.com/hitoshi/taskmaintain/internal/directory"
	"github.com/hitoshi/taskmaintain/internal/metrics"
	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/task"
	"github.com/hitoshi/taskmaintain/internal/view"
)

const (
	// userCreatedMessage はユーザー追加成功時にディレクトリへ表示する文言。
	userCreatedMessage = "✅ Usuario agregado con éxito"
	// statsErrorMessage は集計に失敗したときにダッシュボードへ表示する文言。
	statsErrorMessage = "No se pudieron cargar las estadísticas."
	// usersErrorMessage はディレクトリの取得に失敗したときに表示する文言。
	usersErrorMessage = "No se pudieron cargar los usuarios."
)

// ローダー名。メトリクスのラベルに使う。
const (
	loaderStats    = "stats"
	loaderCalendar = "calendar"
	loaderTasks    = "tasks"
	loaderUsers    = "users"
)

// TaskServiceInterface はタスク関連のハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context) ([]task.Card, error)
	Get(ctx context.Context, id string) (*task.Card, error)
	Create(ctx context.Context, ownerID string, input task.CreateInput) (*model.Task, error)
	UpdateNotes(ctx context.Context, id, notes string) error
}

// StatsServiceInterface はダッシュボード集計のサービスインターフェース。
type StatsServiceInterface interface {
	Refresh(ctx context.Context) (model.TaskStats, error)
}

// DirectoryServiceInterface はユーザーディレクトリのサービスインターフェース。
type DirectoryServiceInterface interface {
	Filter(ctx context.Context, term string) ([]directory.Card, error)
	Create(ctx context.Context, input directory.CreateInput) (*model.Profile, error)
}

// PageHandler は "/" のログイン画面・メイン画面と、メイン画面のフォーム送信を扱う。
type PageHandler struct {
	tasks     TaskServiceInterface
	stats     StatsServiceInterface
	directory DirectoryServiceInterface
	renderer  *view.Renderer
	metrics   metrics.MetricsCollector
	loc       *time.Location
	now       func() time.Time
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(
	tasks TaskServiceInterface,
	stats StatsServiceInterface,
	dir DirectoryServiceInterface,
	renderer *view.Renderer,
	collector metrics.MetricsCollector,
	loc *time.Location,
) *PageHandler {
	if collector == nil {
		collector = metrics.Noop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &PageHandler{
		tasks:     tasks,
		stats:     stats,
		directory: dir,
		renderer:  renderer,
		metrics:   collector,
		loc:       loc,
		now:       time.Now,
	}
}

// Index はセッションの有無に応じてログイン画面またはメイン画面を表示する。
// GET /?screen=dashboard|calendar|tasks|users&q=検索語&add=1
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		renderPage(w, h.renderer, http.StatusOK, view.PageData{
			View:      view.ViewLogin,
			CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		})
		return
	}

	q := r.URL.Query()
	data := h.newMainPage(r, view.Show(q.Get("screen")))
	data.Users.Query = q.Get("q")
	data.Users.FormOpen = q.Get("add") == "1"
	if q.Get("notice") == "created" {
		data.Users.Notice = userCreatedMessage
	}

	h.load(r.Context(), &data)
	renderPage(w, h.renderer, http.StatusOK, data)
}

// CreateTask はタスク作成フォームを処理する。
// POST /tasks
// 成功時はタスク画面へリダイレクトしてフォームを空にし、一覧・カレンダー・集計を読み込み直す。
func (h *PageHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	form := view.TaskForm{
		Title:       r.PostFormValue("titulo"),
		Description: r.PostFormValue("descripcion"),
		StartTime:   r.PostFormValue("fecha_inicio"),
		EndTime:     r.PostFormValue("fecha_fin"),
		Notes:       r.PostFormValue("observaciones"),
	}

	_, err := h.tasks.Create(r.Context(), userID, task.CreateInput{
		Title:       form.Title,
		Description: form.Description,
		StartTime:   form.StartTime,
		EndTime:     form.EndTime,
		Notes:       form.Notes,
	})
	if err != nil {
		msg, status := userMessage(err)
		data := h.newMainPage(r, view.ScreenTasks)
		data.Tasks.Form = form
		data.Tasks.FormError = task.SaveErrorMessage(msg)
		h.load(r.Context(), &data)
		renderPage(w, h.renderer, status, data)
		return
	}

	h.metrics.RecordTaskCreated()
	http.Redirect(w, r, "/?screen=tasks", http.StatusSeeOther)
}

// EditNotes は備考編集画面を現在の備考を初期値として表示する。
// GET /tasks/{id}/notes
func (h *PageHandler) EditNotes(w http.ResponseWriter, r *http.Request) {
	card, err := h.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		msg, status := userMessage(err)
		http.Error(w, msg, status)
		return
	}

	renderNotes(w, h.renderer, http.StatusOK, view.NotesData{
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Task:      *card,
	})
}

// UpdateNotes は備考のみを更新してタスク画面へ戻る。
// POST /tasks/{id}/notes
// キャンセルはフォームを送信せずにタスク画面へ戻るため、ここには来ない。
func (h *PageHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes := r.PostFormValue("observaciones")

	if err := h.tasks.UpdateNotes(r.Context(), id, notes); err != nil {
		msg, status := userMessage(err)
		card, getErr := h.tasks.Get(r.Context(), id)
		if getErr != nil {
			http.Error(w, msg, status)
			return
		}
		card.Notes = notes
		renderNotes(w, h.renderer, status, view.NotesData{
			CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
			Task:      *card,
			Error:     task.SaveErrorMessage(msg),
		})
		return
	}

	http.Redirect(w, r, "/?screen=tasks", http.StatusSeeOther)
}

// CreateUser はユーザー追加フォームを処理する。
// POST /users
// 成功時はフォームを閉じて一覧を読み込み直し、成功メッセージを表示する。
func (h *PageHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	form := view.UserForm{
		FirstName: r.PostFormValue("nombre"),
		LastName:  r.PostFormValue("apellido"),
		Email:     r.PostFormValue("email"),
		Company:   r.PostFormValue("empresa"),
	}

	_, err := h.directory.Create(r.Context(), directory.CreateInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Company:   form.Company,
	})
	if err != nil {
		msg, status := userMessage(err)
		data := h.newMainPage(r, view.ScreenUsers)
		data.Users.FormOpen = true
		data.Users.Form = form
		data.Users.FormError = directory.SaveErrorMessage(msg)
		h.load(r.Context(), &data)
		renderPage(w, h.renderer, status, data)
		return
	}

	h.metrics.RecordProfileCreated()
	http.Redirect(w, r, "/?screen=users&notice=created", http.StatusSeeOther)
}

func (h *PageHandler) newMainPage(r *http.Request, screen view.Screen) view.PageData {
	return view.PageData{
		View:      view.ViewMain,
		Screen:    screen,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
}

// load はメイン画面の4つのローダー（集計・カレンダー・タスク・ユーザー）を並行に実行する。
// 各ローダーは自分のパネルだけを書き換え、失敗しても他のパネルには影響しない。
func (h *PageHandler) load(ctx context.Context, data *view.PageData) {
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		stats, err := h.stats.Refresh(ctx)
		if err != nil {
			h.loaderFailed(loaderStats, err)
			data.Dashboard.Error = statsErrorMessage
			return
		}
		data.Dashboard.Stats = stats
	}()

	go func() {
		defer wg.Done()
		data.Calendar.Cells = calendar.Build(h.now().In(h.loc))
	}()

	go func() {
		defer wg.Done()
		cards, err := h.tasks.List(ctx)
		if err != nil {
			h.loaderFailed(loaderTasks, err)
			data.Tasks.LoadError = task.LoadErrorMessage
			return
		}
		data.Tasks.Cards = cards
	}()

	go func() {
		defer wg.Done()
		cards, err := h.directory.Filter(ctx, data.Users.Query)
		if err != nil {
			h.loaderFailed(loaderUsers, err)
			data.Users.LoadError = usersErrorMessage
			return
		}
		data.Users.Cards = cards
	}()

	wg.Wait()
}

func (h *PageHandler) loaderFailed(loader string, err error) {
	slog.Error("loader failed",
		slog.String("loader", loader),
		slog.String("error", err.Error()),
	)
	h.metrics.RecordLoaderFailure(loader)
}

// renderPage はページをレンダリングして書き込む。
// レンダリングに失敗した場合は500を返す。
func renderPage(w http.ResponseWriter, renderer *view.Renderer, status int, data view.PageData) {
	var buf bytes.Buffer
	if err := renderer.RenderPage(&buf, data); err != nil {
		slog.Error("failed to render page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func renderNotes(w http.ResponseWriter, renderer *view.Renderer, status int, data view.NotesData) {
	var buf bytes.Buffer
	if err := renderer.RenderNotes(&buf, data); err != nil {
		slog.Error("failed to render notes", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(body)
}
