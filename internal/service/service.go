package service

import (
	"context"

	"todo_api/internal/models"
	"todo_api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Authorization interface {
	SignUp(ctx context.Context, email, password string) (*models.User, string, error)
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	SignOut(ctx context.Context, user *models.User, token string) error
}

// Todos exposes CRUD on the caller's own todos. Ids arrive as raw path strings.
type Todos interface {
	Create(ctx context.Context, creator primitive.ObjectID, text string) (*models.Todo, error)
	List(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error)
	Get(ctx context.Context, id string, creator primitive.ObjectID) (*models.Todo, error)
	Update(ctx context.Context, id string, creator primitive.ObjectID, p TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id string, creator primitive.ObjectID) (*models.Todo, error)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Todos
}

// Deps carries what NewService needs beyond the repositories.
type Deps struct {
	Tokens     *TokenService
	BcryptCost int
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, deps.Tokens, deps.BcryptCost),
		Todos:         NewTodoService(repos.Todos),
	}
}
