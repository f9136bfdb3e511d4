// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/taskmaintain/internal/model"
)

// ErrDuplicateEmail は同じメールアドレスのアカウントが既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("account email already exists")

// AccountRepository はログイン用アカウントの永続化インターフェース。
type AccountRepository interface {
	// FindByEmail はメールアドレス（大文字小文字を区別しない）でアカウントを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// Create はアカウントを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, account *model.Account) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired はbefore時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// TaskRepository はtareasテーブルの永続化インターフェース。
// 削除操作は提供しない。
type TaskRepository interface {
	// List は全タスクを開始日時の降順で返す。
	List(ctx context.Context) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListSummaries は集計用にestadoとfecha_finのみを全件返す。
	ListSummaries(ctx context.Context) ([]model.TaskSummary, error)

	// Create はタスクを1件作成する。
	Create(ctx context.Context, task *model.Task) error

	// UpdateNotes は指定IDのタスクのobservacionesのみを更新する。
	// 該当行がない場合はfalseを返す。
	UpdateNotes(ctx context.Context, id, notes string) (bool, error)
}

// ProfileRepository はperfilesテーブルの永続化インターフェース。
// 更新・削除操作は提供しない。
type ProfileRepository interface {
	// List は全プロフィールを返す。
	List(ctx context.Context) ([]*model.Profile, error)

	// Create はプロフィールを1件作成する。
	Create(ctx context.Context, profile *model.Profile) error
}
