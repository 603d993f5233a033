package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"todo_api/internal/models"
	"todo_api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUser  *models.User
	signToken string
	signErr   error

	mu        sync.Mutex
	authUser  *models.User
	authErr   error
	authCalls int
	// revokeAfter > 0 fails every Authenticate call past that count
	revokeAfter int

	signOutErr error

	lastEmail        string
	lastPassword     string
	lastAuthToken    string
	lastSignOutToken string
	signOutCalls     int
}

func (m *mockAuth) SignUp(_ context.Context, email, password string) (*models.User, string, error) {
	m.lastEmail, m.lastPassword = email, password
	return m.signUser, m.signToken, m.signErr
}

func (m *mockAuth) SignIn(_ context.Context, email, password string) (*models.User, string, error) {
	m.lastEmail, m.lastPassword = email, password
	return m.signUser, m.signToken, m.signErr
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCalls++
	m.lastAuthToken = token
	if m.revokeAfter > 0 && m.authCalls > m.revokeAfter {
		return nil, fmt.Errorf("%w: token revoked", service.ErrUnauthenticated)
	}
	return m.authUser, m.authErr
}

func (m *mockAuth) SignOut(_ context.Context, _ *models.User, token string) error {
	m.signOutCalls++
	m.lastSignOutToken = token
	return m.signOutErr
}

type mockTodos struct {
	todo *models.Todo
	list []models.Todo
	err  error

	lastID    string
	lastOwner primitive.ObjectID
	lastText  string
	lastPatch service.TodoPatch
	calls     int
}

func (m *mockTodos) Create(_ context.Context, creator primitive.ObjectID, text string) (*models.Todo, error) {
	m.calls++
	m.lastOwner, m.lastText = creator, text
	return m.todo, m.err
}

func (m *mockTodos) List(_ context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	m.calls++
	m.lastOwner = creator
	return m.list, m.err
}

func (m *mockTodos) Get(_ context.Context, id string, creator primitive.ObjectID) (*models.Todo, error) {
	m.calls++
	m.lastID, m.lastOwner = id, creator
	return m.todo, m.err
}

func (m *mockTodos) Update(_ context.Context, id string, creator primitive.ObjectID, p service.TodoPatch) (*models.Todo, error) {
	m.calls++
	m.lastID, m.lastOwner, m.lastPatch = id, creator, p
	return m.todo, m.err
}

func (m *mockTodos) Delete(_ context.Context, id string, creator primitive.ObjectID) (*models.Todo, error) {
	m.calls++
	m.lastID, m.lastOwner = id, creator
	return m.todo, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}

func testUser() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: "alice@example.com", PasswordHash: "hash"}
}

func withAuth(req *http.Request, token string) *http.Request {
	if token != "" {
		req.Header.Set(authHeader, token)
	}
	return req
}
