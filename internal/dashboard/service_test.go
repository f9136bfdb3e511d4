package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskmaintain/internal/model"
)

type mockTaskRepo struct {
	listSummariesFn func(ctx context.Context) ([]model.TaskSummary, error)
}

func (m *mockTaskRepo) List(_ context.Context) ([]*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) FindByID(_ context.Context, _ string) (*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) ListSummaries(ctx context.Context) ([]model.TaskSummary, error) {
	return m.listSummariesFn(ctx)
}

func (m *mockTaskRepo) Create(_ context.Context, _ *model.Task) error {
	return nil
}

func (m *mockTaskRepo) UpdateNotes(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func TestAggregate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		summaries []model.TaskSummary
		want      model.TaskStats
	}{
		{"empty", nil, model.TaskStats{}},
		{
			name: "mixed",
			summaries: []model.TaskSummary{
				{Status: model.TaskStatusPending, EndTime: past},
				{Status: model.TaskStatusPending, EndTime: future},
				{Status: model.TaskStatusCompleted, EndTime: past},
			},
			want: model.TaskStats{Total: 3, Pending: 2, Completed: 1, Overdue: 1},
		},
		{
			// 未知の状態は合計にのみ含まれる
			name: "unknown status",
			summaries: []model.TaskSummary{
				{Status: "archivada", EndTime: past},
			},
			want: model.TaskStats{Total: 1},
		},
		{
			name: "end equals now is not overdue",
			summaries: []model.TaskSummary{
				{Status: model.TaskStatusPending, EndTime: now},
			},
			want: model.TaskStats{Total: 1, Pending: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.summaries, now)
			if got != tt.want {
				t.Errorf("Aggregate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregate_MatchesTaskOverdueFlag(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tasks := []*model.Task{
		{Status: model.TaskStatusPending, EndTime: now.Add(-24 * time.Hour)},
		{Status: model.TaskStatusPending, EndTime: now.Add(24 * time.Hour)},
		{Status: model.TaskStatusCompleted, EndTime: now.Add(-24 * time.Hour)},
		{Status: model.TaskStatusPending, EndTime: now.Add(-time.Minute)},
	}

	flagged := 0
	summaries := make([]model.TaskSummary, len(tasks))
	for i, task := range tasks {
		if task.IsOverdue(now) {
			flagged++
		}
		summaries[i] = model.TaskSummary{Status: task.Status, EndTime: task.EndTime}
	}

	if got := Aggregate(summaries, now).Overdue; got != flagged {
		t.Errorf("Overdue = %d, want %d (cards flagged overdue)", got, flagged)
	}
}

func TestRefresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewService(&mockTaskRepo{
		listSummariesFn: func(_ context.Context) ([]model.TaskSummary, error) {
			return []model.TaskSummary{
				{Status: model.TaskStatusPending, EndTime: now.Add(-time.Hour)},
			}, nil
		},
	})
	s.now = func() time.Time { return now }

	stats, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Overdue != 1 || stats.Pending != 1 || stats.Total != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRefresh_Error(t *testing.T) {
	s := NewService(&mockTaskRepo{
		listSummariesFn: func(_ context.Context) ([]model.TaskSummary, error) {
			return nil, errors.New("db down")
		},
	})

	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
