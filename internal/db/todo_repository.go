package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

// defines methods for todo db operations; every lookup is scoped to the owner
type TodoRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	ToggleCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Task, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, user_id, title, description, completed, created_at, updated_at`

func (r *TodoRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO todos (` + todoColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.UserID, task.Title, nullString(task.Description),
		task.Completed, task.CreatedAt, nullTime(task.UpdatedAt))
	return err
}

func (r *TodoRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
	 WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

// Update writes title, description, completed and updated_at of an existing todo.
func (r *TodoRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE todos SET title = $1, description = $2, completed = $3, updated_at = $4
	 WHERE id = $5 AND user_id = $6`
	res, err := r.db.ExecContext(ctx, query, task.Title, nullString(task.Description),
		task.Completed, nullTime(task.UpdatedAt), task.ID, task.UserID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ToggleCompleted flips the flag in a single statement so concurrent toggles never
// read a stale value.
func (r *TodoRepository) ToggleCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Task, error) {
	query := `UPDATE todos SET completed = NOT completed, updated_at = $1
	 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, at, id, userID)
	if err != nil {
		return nil, err
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, userID)
}

func (r *TodoRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var description sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &description,
		&task.Completed, &task.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	task.UpdatedAt = timePtr(updatedAt)
	return task, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
