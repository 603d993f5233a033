package service

import (
	"context"
	"sync"

	"todo_api/internal/models"
	"todo_api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memUsers is an in-memory repository.UserRepo.
type memUsers struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*models.User
	err     error
	appends int
}

func hasToken(u *models.User, access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[primitive.ObjectID]*models.User)}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *u
	cp.Tokens = append([]models.TokenRecord(nil), u.Tokens...)
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByToken(_ context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok || !hasToken(u, access, token) {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) AppendToken(_ context.Context, id primitive.ObjectID, rec models.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = append(u.Tokens, rec)
	return nil
}

func (m *memUsers) RemoveToken(_ context.Context, id primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

func (m *memUsers) tokens(id primitive.ObjectID) []models.TokenRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TokenRecord(nil), m.byID[id].Tokens...)
}

// stubTodos records the last call and returns canned results.
type stubTodos struct {
	todo *models.Todo
	list []models.Todo
	err  error

	created    *models.Todo
	lastID     primitive.ObjectID
	lastOwner  primitive.ObjectID
	lastUpdate models.TodoUpdate
	calls      int
}

func (s *stubTodos) Create(_ context.Context, t *models.Todo) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	t.ID = primitive.NewObjectID()
	s.created = t
	return nil
}

func (s *stubTodos) ListByOwner(_ context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	s.calls++
	s.lastOwner = creator
	return s.list, s.err
}

func (s *stubTodos) GetOwned(_ context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	s.calls++
	s.lastID, s.lastOwner = id, creator
	return s.todo, s.err
}

func (s *stubTodos) UpdateOwned(_ context.Context, id, creator primitive.ObjectID, upd models.TodoUpdate) (*models.Todo, error) {
	s.calls++
	s.lastID, s.lastOwner, s.lastUpdate = id, creator, upd
	return s.todo, s.err
}

func (s *stubTodos) DeleteOwned(_ context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	s.calls++
	s.lastID, s.lastOwner = id, creator
	return s.todo, s.err
}
