// Package directory はperfilesテーブルのユーザーディレクトリ（一覧・絞り込み・追加）を提供する。
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/repository"
	"github.com/hitoshi/taskmaintain/internal/security"
)

// Card はディレクトリ一覧の1枚のカード表示。
type Card struct {
	ID       string `json:"id"`
	FullName string `json:"nombre_completo"`
	Company  string `json:"empresa"`
	Email    string `json:"email"`
}

// CreateInput はユーザー追加フォームの入力値。
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
}

// Service はユーザーディレクトリのサービス層。
type Service struct {
	repo      repository.ProfileRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.ProfileRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は全プロフィールをカードに変換して返す。
func (s *Service) List(ctx context.Context) ([]Card, error) {
	return s.Filter(ctx, "")
}

// Filter は名または姓にtermを含む（大文字小文字を区別しない）プロフィールを返す。
// 呼び出しのたびに全件を取得し直す。termが空の場合は全件を返す。
func (s *Service) Filter(ctx context.Context, term string) ([]Card, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	cards := make([]Card, 0, len(profiles))
	for _, p := range profiles {
		if needle != "" && !matches(p, needle) {
			continue
		}
		cards = append(cards, toCard(p))
	}
	return cards, nil
}

// Create はプロフィールを追加する。
// 名・姓・メールアドレスは必須で、メールアドレスは形式も検証する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Profile, error) {
	profile := &model.Profile{
		ID:        uuid.New().String(),
		FirstName: s.sanitizer.Clean(input.FirstName),
		LastName:  s.sanitizer.Clean(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Company:   s.sanitizer.Clean(input.Company),
		CreatedAt: s.now(),
	}

	if profile.FirstName == "" || profile.LastName == "" || profile.Email == "" {
		return nil, model.NewValidationError(model.MsgProfileRequired)
	}
	if !model.IsValidEmail(profile.Email) {
		return nil, model.NewValidationError(model.MsgInvalidEmail)
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("ユーザーの追加に失敗しました: %w", err)
	}

	return profile, nil
}

// SaveErrorMessage は追加失敗時に画面へ表示する文言を返す。
func SaveErrorMessage(message string) string {
	return "Error al guardar el usuario: " + message
}

func matches(p *model.Profile, needle string) bool {
	return strings.Contains(strings.ToLower(p.FirstName), needle) ||
		strings.Contains(strings.ToLower(p.LastName), needle)
}

func toCard(p *model.Profile) Card {
	return Card{
		ID:       p.ID,
		FullName: p.FullName(),
		Company:  p.DisplayCompany(),
		Email:    p.Email,
	}
}
