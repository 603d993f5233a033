package service

import (
	"context"
	"fmt"
	"time"

	"todo_api/internal/models"
	"todo_api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TodoPatch carries the optional fields of an update request.
type TodoPatch struct {
	Text      *string
	Completed *bool
}

type TodoService struct {
	todos repository.TodoRepo
	now   func() time.Time
}

func NewTodoService(todos repository.TodoRepo) *TodoService {
	return &TodoService{todos: todos, now: time.Now}
}

// parseID rejects ids that are not ObjectID hex before any lookup.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func (s *TodoService) Create(ctx context.Context, creator primitive.ObjectID, text string) (*models.Todo, error) {
	text, err := normalizeTodoText(text)
	if err != nil {
		return nil, err
	}
	t := &models.Todo{Text: text, Creator: creator}
	if err := s.todos.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TodoService) List(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	return s.todos.ListByOwner(ctx, creator)
}

// Get returns ErrNotFound both for unknown ids and for todos of another owner.
func (s *TodoService) Get(ctx context.Context, id string, creator primitive.ObjectID) (*models.Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return found(s.todos.GetOwned(ctx, oid, creator))
}

// Update applies p. Completing stamps completedAt with the current time in
// milliseconds; any other update, including one that omits completed, clears it.
func (s *TodoService) Update(ctx context.Context, id string, creator primitive.ObjectID, p TodoPatch) (*models.Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var upd models.TodoUpdate
	if p.Text != nil {
		text, err := normalizeTodoText(*p.Text)
		if err != nil {
			return nil, err
		}
		upd.Text = &text
	}
	if p.Completed != nil && *p.Completed {
		at := s.now().UnixMilli()
		upd.Completed = true
		upd.CompletedAt = &at
	}
	return found(s.todos.UpdateOwned(ctx, oid, creator, upd))
}

// Delete removes the todo and returns its state before removal.
func (s *TodoService) Delete(ctx context.Context, id string, creator primitive.ObjectID) (*models.Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return found(s.todos.DeleteOwned(ctx, oid, creator))
}

func found(t *models.Todo, err error) (*models.Todo, error) {
	if err != nil {
		return nil, fmt.Errorf("todo store: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}
