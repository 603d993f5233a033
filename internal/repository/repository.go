package repository

import (
	"context"
	"database/sql"
	"errors"

	"todo_api/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrDuplicateEmail is returned by UserRepo.Create when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned by token mutations when the user does not exist.
	ErrNotFound = errors.New("not found")
)

// UserRepo is the credential store. Lookups return (nil, nil) when nothing matches.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error)
	AppendToken(ctx context.Context, id primitive.ObjectID, rec models.TokenRecord) error
	RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// TodoRepo stores todos. Every single-item operation is scoped by (id, creator)
// and returns (nil, nil) when no todo of that owner has the id.
type TodoRepo interface {
	Create(ctx context.Context, t *models.Todo) error
	ListByOwner(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error)
	GetOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error)
	UpdateOwned(ctx context.Context, id, creator primitive.ObjectID, upd models.TodoUpdate) (*models.Todo, error)
	DeleteOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error)
}

type Repository struct {
	Users UserRepo
	Todos TodoRepo
}

// NewMongoRepository backs both stores with collections of db.
func NewMongoRepository(db *mongo.Database) *Repository {
	return &Repository{
		Users: NewUserMongo(db),
		Todos: NewTodoMongo(db),
	}
}

// NewSQLiteRepository backs both stores with tables of db.
func NewSQLiteRepository(db *sql.DB) *Repository {
	return &Repository{
		Users: NewUserSQLite(db),
		Todos: NewTodoSQLite(db),
	}
}
