package model

import "time"

// TaskStatus はタスクの状態を表す。
// 値はtareas.estadoカラムにそのまま保存される。
type TaskStatus string

const (
	// TaskStatusPending は未完了のタスク。作成時は常にこの状態になる。
	TaskStatusPending TaskStatus = "pendiente"
	// TaskStatusCompleted は完了済みのタスク。
	TaskStatusCompleted TaskStatus = "completado"
)

// Task はtareasテーブルの1行を表す。
// 作成後に変更されるのはNotesのみで、削除はされない。
// StartTime <= EndTime は検証しない。
type Task struct {
	ID          string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Notes       string
	OwnerID     string
	Status      TaskStatus
	CreatedAt   time.Time
}

// IsOverdue は終了日時がnowより前で、かつ完了していない場合にtrueを返す。
// タスク一覧とダッシュボード集計の両方がこの判定を使う。
func IsOverdue(status TaskStatus, endTime, now time.Time) bool {
	return status != TaskStatusCompleted && endTime.Before(now)
}

// IsOverdue はタスクが期限切れかどうかを返す。
func (t *Task) IsOverdue(now time.Time) bool {
	return IsOverdue(t.Status, t.EndTime, now)
}

// TaskSummary はダッシュボード集計に必要なカラム（estado, fecha_fin）のみを保持する。
type TaskSummary struct {
	Status  TaskStatus
	EndTime time.Time
}

// TaskStats はダッシュボードに表示する4つの件数。
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}
