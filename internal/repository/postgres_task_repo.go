package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/taskmaintain/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// List は全タスクを開始日時の降順で返す。
func (r *PostgresTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, titulo, descripcion, fecha_inicio, fecha_fin, observaciones,
		        COALESCE(usuario_id::text, ''), estado, created_at
		 FROM tareas
		 ORDER BY fecha_inicio DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t := &model.Task{}
		var status string
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.StartTime, &t.EndTime, &t.Notes,
			&t.OwnerID, &status, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Status = model.TaskStatus(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// FindByID は指定IDのタスクを取得する。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t := &model.Task{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, titulo, descripcion, fecha_inicio, fecha_fin, observaciones,
		        COALESCE(usuario_id::text, ''), estado, created_at
		 FROM tareas
		 WHERE id = $1`,
		id,
	).Scan(
		&t.ID, &t.Title, &t.Description, &t.StartTime, &t.EndTime, &t.Notes,
		&t.OwnerID, &status, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	t.Status = model.TaskStatus(status)
	return t, nil
}

// ListSummaries は集計用にestadoとfecha_finのみを全件返す。
func (r *PostgresTaskRepo) ListSummaries(ctx context.Context) ([]model.TaskSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT estado, fecha_fin FROM tareas`)
	if err != nil {
		return nil, fmt.Errorf("failed to list task summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.TaskSummary
	for rows.Next() {
		var s model.TaskSummary
		var status string
		if err := rows.Scan(&status, &s.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan task summary: %w", err)
		}
		s.Status = model.TaskStatus(status)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task summaries: %w", err)
	}

	return summaries, nil
}

// Create はタスクを1件作成する。
// OwnerIDが空の場合はusuario_idをNULLにする。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	var ownerID sql.NullString
	if task.OwnerID != "" {
		ownerID = sql.NullString{String: task.OwnerID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tareas (id, titulo, descripcion, fecha_inicio, fecha_fin, observaciones, usuario_id, estado, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID, task.Title, task.Description, task.StartTime, task.EndTime, task.Notes,
		ownerID, string(task.Status), task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateNotes は指定IDのタスクのobservacionesのみを更新する。
func (r *PostgresTaskRepo) UpdateNotes(ctx context.Context, id, notes string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tareas SET observaciones = $1 WHERE id = $2`,
		notes, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update task notes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
