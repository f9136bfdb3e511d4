// Package auth はメールアドレスとパスワードによる認証、セッション管理、
// 認証状態変化の通知を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // 0の場合はbcrypt.DefaultCost
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	notifier *Notifier
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。
// notifierがnilの場合は通知を行わない。
func NewService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	notifier *Notifier,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// ValidateRegistration は登録フォームの入力を検証する。
// 検証は順に (a) 両方が空でない (b) メール形式 (c) パスワード長 を行い、
// 最初に失敗した項目のエラーのみを返す。
func ValidateRegistration(email, password string) error {
	if email == "" || password == "" {
		return model.NewValidationError(model.MsgCredentialsRequired)
	}
	if !model.IsValidEmail(email) {
		return model.NewValidationError(model.MsgInvalidEmail)
	}
	if !model.IsPasswordLongEnough(password) {
		return model.NewValidationError(model.MsgPasswordTooShort)
	}
	return nil
}

// GetSession はセッションIDから有効なセッションを取得する。
// セッションが存在しない、または期限切れの場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if !session.Valid(s.now()) {
		return nil, nil
	}

	return session, nil
}

// SignInWithPassword はメールアドレスとパスワードを照合し、セッションを発行する。
// 照合に失敗した場合はアカウントの有無を区別せずNewInvalidCredentialsErrorを返す。
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.Warn("password mismatch", slog.String("user_id", account.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", account.ID))
	s.publish(EventSignedIn, session)

	return session, nil
}

// SignUp はアカウントを登録する。登録後の自動ログインは行わない。
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewValidationError(model.MsgCredentialsRequired)
	}
	if !model.IsPasswordLongEnough(password) {
		return nil, model.NewValidationError("Password should be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account registered", slog.String("user_id", account.ID))
	return account, nil
}

// SignOut はセッションの持ち主の全セッションを破棄し、SIGNED_OUTを通知する。
// 既に無効なセッションの場合は何もしない。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := s.sessions.DeleteByUserID(ctx, session.UserID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	slog.Info("user signed out", slog.String("user_id", session.UserID))
	s.publish(EventSignedOut, session)

	return nil
}

// Notifier は認証状態変化の通知先を返す。
func (s *Service) Notifier() *Notifier {
	return s.notifier
}

func (s *Service) publish(event Event, session *model.Session) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(Notification{
		Event:     event,
		UserID:    session.UserID,
		SessionID: session.ID,
		At:        s.now(),
	})
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
