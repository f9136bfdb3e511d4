// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taskmaintain/internal/auth"
	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/view"
)

// registrationSuccessMessage は登録成功時にログイン画面へ表示する文言。
const registrationSuccessMessage = "✅ ¡Registro exitoso! Ya puedes iniciar sesión."

// sseHeartbeatInterval はSSE接続を維持するためのコメント送信間隔。
const sseHeartbeatInterval = 25 * time.Second

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Account, error)
	SignOut(ctx context.Context, sessionID string) error
}

// AuthEventSource は認証状態変化の購読元。auth.Notifierが実装する。
type AuthEventSource interface {
	Subscribe(userID string, buffer int) (<-chan auth.Notification, func())
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・登録・ログアウトと認証状態の通知を扱うHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	events   AuthEventSource
	renderer *view.Renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, events AuthEventSource, renderer *view.Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		events:   events,
		renderer: renderer,
		config:   config,
	}
}

// Login はメールアドレスとパスワードでログインする。
// POST /auth/login
// 失敗した場合は認証サービスのメッセージをそのままログイン画面に表示する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	session, err := h.service.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		msg, status := userMessage(err)
		h.renderLogin(w, r, status, view.LoginPanel{Email: email, Message: msg, IsError: true})
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Register はアカウントを登録する。
// POST /auth/register
// 入力検証に失敗した場合は認証サービスを呼び出さない。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	if err := auth.ValidateRegistration(email, password); err != nil {
		msg, status := userMessage(err)
		h.renderLogin(w, r, status, view.LoginPanel{Email: email, Message: msg, IsError: true})
		return
	}

	if _, err := h.service.SignUp(r.Context(), email, password); err != nil {
		msg, status := userMessage(err)
		h.renderLogin(w, r, status, view.LoginPanel{Email: email, Message: msg, IsError: true})
		return
	}

	// 成功時はフォームを空にして確認メッセージを表示する
	h.renderLogin(w, r, http.StatusOK, view.LoginPanel{Message: registrationSuccessMessage})
}

// Logout はセッションを破棄する。
// POST /auth/logout
// サインアウトの失敗にかかわらずCookieを削除し、ログイン画面へ戻す。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.service.SignOut(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to sign out", slog.String("error", err.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// sessionResponse は現在のセッション状態のAPIレスポンス。
type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Session は現在のセッション状態を返す。
// GET /auth/session
// セッションの取得に失敗した場合も未ログインとして返す。
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		session, err := h.service.GetSession(r.Context(), cookie.Value)
		if err != nil {
			slog.Warn("failed to get session", slog.String("error", err.Error()))
		} else if session != nil {
			resp = sessionResponse{Authenticated: true, UserID: session.UserID, ExpiresAt: &session.ExpiresAt}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Events は認証状態の変化をServer-Sent Eventsで配信する。
// GET /auth/events
// セッションミドルウェアの内側に配置し、ログイン中のユーザーの通知のみを送る。
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	rc := http.NewResponseController(w)
	// サーバーのWriteTimeoutで接続が切れないよう書き込み期限を解除する
	_ = rc.SetWriteDeadline(time.Time{})

	notes, cancel := h.events.Subscribe(userID, 4)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	_ = rc.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case note, ok := <-notes:
			if !ok {
				return
			}
			if err := writeAuthEvent(w, note); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

func writeAuthEvent(w http.ResponseWriter, note auth.Notification) error {
	data, err := json.Marshal(map[string]string{
		"event":   string(note.Event),
		"user_id": note.UserID,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", note.Event, data)
	return err
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, panel view.LoginPanel) {
	renderPage(w, h.renderer, status, view.PageData{
		View:      view.ViewLogin,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Login:     panel,
	})
}

// setSessionCookie はセッションCookieを設定する。maxAgeが負の場合は削除する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
