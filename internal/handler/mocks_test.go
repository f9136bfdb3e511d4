package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskmaintain/internal/directory"
	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/task"
	"github.com/hitoshi/taskmaintain/internal/view"
	"golang.org/x/net/html"
)

// --- モック定義 ---

type mockAuthService struct {
	getSessionFn func(ctx context.Context, sessionID string) (*model.Session, error)
	signInFn     func(ctx context.Context, email, password string) (*model.Session, error)
	signUpFn     func(ctx context.Context, email, password string) (*model.Account, error)
	signOutFn    func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.getSessionFn != nil {
		return m.getSessionFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password string) (*model.Account, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return &model.Account{ID: "acc-1", Email: email}, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, sessionID string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionID)
	}
	return nil
}

type mockTaskService struct {
	listFn        func(ctx context.Context) ([]task.Card, error)
	getFn         func(ctx context.Context, id string) (*task.Card, error)
	createFn      func(ctx context.Context, ownerID string, input task.CreateInput) (*model.Task, error)
	updateNotesFn func(ctx context.Context, id, notes string) error
}

func (m *mockTaskService) List(ctx context.Context) ([]task.Card, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []task.Card{}, nil
}

func (m *mockTaskService) Get(ctx context.Context, id string) (*task.Card, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewTaskNotFoundError(id)
}

func (m *mockTaskService) Create(ctx context.Context, ownerID string, input task.CreateInput) (*model.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return &model.Task{ID: "t-new", OwnerID: ownerID, Title: input.Title, Status: model.TaskStatusPending}, nil
}

func (m *mockTaskService) UpdateNotes(ctx context.Context, id, notes string) error {
	if m.updateNotesFn != nil {
		return m.updateNotesFn(ctx, id, notes)
	}
	return nil
}

type mockStatsService struct {
	refreshFn func(ctx context.Context) (model.TaskStats, error)
}

func (m *mockStatsService) Refresh(ctx context.Context) (model.TaskStats, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return model.TaskStats{}, nil
}

type mockDirectoryService struct {
	filterFn func(ctx context.Context, term string) ([]directory.Card, error)
	createFn func(ctx context.Context, input directory.CreateInput) (*model.Profile, error)
}

func (m *mockDirectoryService) Filter(ctx context.Context, term string) ([]directory.Card, error) {
	if m.filterFn != nil {
		return m.filterFn(ctx, term)
	}
	return []directory.Card{}, nil
}

func (m *mockDirectoryService) Create(ctx context.Context, input directory.CreateInput) (*model.Profile, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return &model.Profile{ID: "p-new", FirstName: input.FirstName, LastName: input.LastName, Email: input.Email}, nil
}

type recordingMetrics struct {
	mu              sync.Mutex
	tasksCreated    int
	profilesCreated int
	loaderFailures  []string
}

func (m *recordingMetrics) RecordAuthEvent(string)                     {}
func (m *recordingMetrics) RecordTaskCreated()                         { m.tasksCreated++ }
func (m *recordingMetrics) RecordProfileCreated()                      { m.profilesCreated++ }
func (m *recordingMetrics) RecordHTTPStatus(string, int)               {}
func (m *recordingMetrics) RecordSessionsPurged(int64, time.Duration) {}

// RecordLoaderFailure はローダーのゴルーチンから呼ばれる
func (m *recordingMetrics) RecordLoaderFailure(loader string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaderFailures = append(m.loaderFailures, loader)
}

// --- テストヘルパー ---

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func countNodes(n *html.Node, match func(*html.Node) bool) int {
	count := 0
	if n.Type == html.ElementNode && match(n) {
		count++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countNodes(c, match)
	}
	return count
}

func attrOf(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func idIs(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, _ := attrOf(n, "id")
		return v == id
	}
}

func classIs(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, _ := attrOf(n, "class")
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// visibleScreen はhidden属性のないスクリーンのIDを返す。
func visibleScreen(doc *html.Node) string {
	var visible []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && classIs("screen")(n) {
			if _, hidden := attrOf(n, "hidden"); !hidden {
				id, _ := attrOf(n, "id")
				visible = append(visible, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(visible, ",")
}
