package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo_api/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TodoSQLite struct {
	db *sql.DB
}

func NewTodoSQLite(db *sql.DB) *TodoSQLite { return &TodoSQLite{db: db} }

var _ TodoRepo = (*TodoSQLite)(nil)

const (
	todoColumns = `id, text, completed, completed_at, creator`

	insertTodoSQL         = `INSERT INTO todos (id, text, completed, completed_at, creator) VALUES (?, ?, ?, ?, ?)`
	selectTodosByOwnerSQL = `SELECT ` + todoColumns + ` FROM todos WHERE creator = ? ORDER BY id ASC`
	selectOwnedTodoSQL    = `SELECT ` + todoColumns + ` FROM todos WHERE id = ? AND creator = ?`
	updateOwnedTodoSQL    = `UPDATE todos SET text = COALESCE(?, text), completed = ?, completed_at = ? WHERE id = ? AND creator = ? RETURNING ` + todoColumns
	deleteOwnedTodoSQL    = `DELETE FROM todos WHERE id = ? AND creator = ? RETURNING ` + todoColumns
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(s rowScanner) (*models.Todo, error) {
	var (
		t                 models.Todo
		idHex, creatorHex string
		completedAt       sql.NullInt64
	)
	if err := s.Scan(&idHex, &t.Text, &t.Completed, &completedAt, &creatorHex); err != nil {
		return nil, err
	}
	var err error
	if t.ID, err = primitive.ObjectIDFromHex(idHex); err != nil {
		return nil, fmt.Errorf("stored todo id %q: %w", idHex, err)
	}
	if t.Creator, err = primitive.ObjectIDFromHex(creatorHex); err != nil {
		return nil, fmt.Errorf("stored creator id %q: %w", creatorHex, err)
	}
	if completedAt.Valid {
		v := completedAt.Int64
		t.CompletedAt = &v
	}
	return &t, nil
}

// scanOwned maps sql.ErrNoRows to (nil, nil).
func scanOwned(row *sql.Row, what string) (*models.Todo, error) {
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return t, nil
}

func (r *TodoSQLite) Create(ctx context.Context, t *models.Todo) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.db.ExecContext(ctx, insertTodoSQL, t.ID.Hex(), t.Text, t.Completed, t.CompletedAt, t.Creator.Hex())
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TodoSQLite) ListByOwner(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, selectTodosByOwnerSQL, creator.Hex())
	if err != nil {
		return nil, fmt.Errorf("select todos of %s: %w", creator.Hex(), err)
	}
	defer rows.Close()

	out := make([]models.Todo, 0, 16)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo of %s: %w", creator.Hex(), err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos of %s: %w", creator.Hex(), err)
	}
	return out, nil
}

func (r *TodoSQLite) GetOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	return scanOwned(r.db.QueryRowContext(ctx, selectOwnedTodoSQL, id.Hex(), creator.Hex()), "select todo "+id.Hex())
}

func (r *TodoSQLite) UpdateOwned(ctx context.Context, id, creator primitive.ObjectID, upd models.TodoUpdate) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx, updateOwnedTodoSQL, upd.Text, upd.Completed, upd.CompletedAt, id.Hex(), creator.Hex())
	return scanOwned(row, "update todo "+id.Hex())
}

func (r *TodoSQLite) DeleteOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	return scanOwned(r.db.QueryRowContext(ctx, deleteOwnedTodoSQL, id.Hex(), creator.Hex()), "delete todo "+id.Hex())
}
