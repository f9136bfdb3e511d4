// Package dashboard はダッシュボードに表示するタスク件数の集計を提供する。
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/repository"
)

// Service はダッシュボード集計のサービス層。
// 集計結果はキャッシュせず、呼び出しのたびに全件を走査する。
type Service struct {
	repo repository.TaskRepository
	now  func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.TaskRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Refresh は全タスクの状態と終了日時を取得し、4つの件数を返す。
func (s *Service) Refresh(ctx context.Context) (model.TaskStats, error) {
	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("集計用タスクの取得に失敗しました: %w", err)
	}
	return Aggregate(summaries, s.now()), nil
}

// Aggregate はnow時点での件数を数える。
// 期限切れはタスク一覧と同じmodel.IsOverdueで判定する。
func Aggregate(summaries []model.TaskSummary, now time.Time) model.TaskStats {
	stats := model.TaskStats{Total: len(summaries)}
	for _, s := range summaries {
		switch s.Status {
		case model.TaskStatusPending:
			stats.Pending++
		case model.TaskStatusCompleted:
			stats.Completed++
		}
		if s.Status == model.TaskStatusPending && model.IsOverdue(s.Status, s.EndTime, now) {
			stats.Overdue++
		}
	}
	return stats
}
