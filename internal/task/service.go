// Package task はtareasテーブルに対するタスクの一覧・作成・備考更新を提供する。
package task

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

// 画面表示用の日時フォーマット（es-ESロケールの短い日付と時刻）
const displayLayout = "02/01/2006, 15:04"

// フォームのdatetime-local入力のレイアウト
const inputLayout = "2006-01-02T15:04"

// LoadErrorMessage はタスク一覧の取得に失敗した場合に一覧の代わりに表示する文言。
const LoadErrorMessage = "Error al cargar tareas."

// Card はタスク一覧の1枚のカード表示。
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Range       string `json:"rango"`
	Notes       string `json:"observaciones"`
	Status      string `json:"estado"`
	Overdue     bool   `json:"vencida"`
}

// CreateInput はタスク作成フォームの入力値。
// 日時はdatetime-local形式の文字列のまま受け取る。
type CreateInput struct {
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Notes       string
}

// Service はタスクのサービス層。
type Service struct {
	repo      repository.TaskRepository
	sanitizer security.TextSanitizer
	loc       *time.Location
	now       func() time.Time
}

// NewService はServiceを生成する。locは表示と入力解釈に使うタイムゾーン。
func NewService(repo repository.TaskRepository, sanitizer security.TextSanitizer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		loc:       loc,
		now:       time.Now,
	}
}

// List は全タスクを開始日時の降順でカードに変換して返す。
func (s *Service) List(ctx context.Context) ([]Card, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}

	now := s.now()
	cards := make([]Card, 0, len(tasks))
	for _, t := range tasks {
		cards = append(cards, s.toCard(t, now))
	}
	return cards, nil
}

// Get は指定IDのタスクをカードとして返す。備考編集フォームの初期値に使う。
func (s *Service) Get(ctx context.Context, id string) (*Card, error) {
	if !isTaskID(id) {
		return nil, model.NewTaskNotFoundError(id)
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(id)
	}
	card := s.toCard(t, s.now())
	return &card, nil
}

// Create はタスクを作成する。
// 状態は常にpendienteになり、所有者はownerID（ログイン中のユーザー）になる。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Task, error) {
	title := s.sanitizer.Clean(input.Title)
	if title == "" {
		return nil, model.NewValidationError(model.MsgTaskTitleRequired)
	}

	start, err := s.ParseInputTime(input.StartTime)
	if err != nil {
		return nil, model.NewValidationError(model.MsgInvalidTaskTime)
	}
	end, err := s.ParseInputTime(input.EndTime)
	if err != nil {
		return nil, model.NewValidationError(model.MsgInvalidTaskTime)
	}

	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: s.sanitizer.Clean(input.Description),
		StartTime:   start,
		EndTime:     end,
		Notes:       s.sanitizer.Clean(input.Notes),
		OwnerID:     ownerID,
		Status:      model.TaskStatusPending,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	return task, nil
}

// UpdateNotes は指定タスクの備考（observaciones）のみを更新する。
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) error {
	if !isTaskID(id) {
		return model.NewTaskNotFoundError(id)
	}
	updated, err := s.repo.UpdateNotes(ctx, id, s.sanitizer.Clean(notes))
	if err != nil {
		return fmt.Errorf("備考の更新に失敗しました: %w", err)
	}
	if !updated {
		return model.NewTaskNotFoundError(id)
	}
	return nil
}

// isTaskID はidがuuid型の列と比較できる形式かを返す。
// 形式外のidはDBに問い合わせず「見つからない」として扱う。
func isTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseInputTime はdatetime-local形式の文字列を設定タイムゾーンの時刻として解釈する。
// 秒付きの形式も受け付ける。
func (s *Service) ParseInputTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	t, err := time.ParseInLocation(inputLayout, value, s.loc)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation(inputLayout+":05", value, s.loc)
}

// FormatRange は「開始 → 終了」形式の表示文字列を返す。
func (s *Service) FormatRange(start, end time.Time) string {
	return start.In(s.loc).Format(displayLayout) + " → " + end.In(s.loc).Format(displayLayout)
}

func (s *Service) toCard(t *model.Task, now time.Time) Card {
	return Card{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Range:       s.FormatRange(t.StartTime, t.EndTime),
		Notes:       t.Notes,
		Status:      string(t.Status),
		Overdue:     t.IsOverdue(now),
	}
}

// SaveErrorMessage は作成失敗時に画面へ表示する文言を返す。
func SaveErrorMessage(message string) string {
	return "Error al guardar: " + message
}
