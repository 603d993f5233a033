package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todo_api/internal/models"
	"todo_api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login, per-request authentication and logout.
type AuthService struct {
	users  repository.UserRepo
	tokens *TokenService
	cost   int
}

func NewAuthService(users repository.UserRepo, tokens *TokenService, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, cost: bcryptCost}
}

// SignUp validates the credentials, stores a bcrypt hash and opens the first session.
// The user and its first token are written in a single insert.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u := &models.User{ID: primitive.NewObjectID(), Email: email, PasswordHash: hash}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	u.Tokens = []models.TokenRecord{{Access: models.AccessAuth, Token: token}}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", &ValidationError{Field: "email", Reason: "is already registered"}
		}
		return nil, "", err
	}
	return u, token, nil
}

// SignIn checks credentials and appends a fresh token to the user's list.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.findByCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	rec := models.TokenRecord{Access: models.AccessAuth, Token: token}
	if err := s.users.AppendToken(ctx, u.ID, rec); err != nil {
		return nil, "", fmt.Errorf("store token: %w", err)
	}
	u.Tokens = append(u.Tokens, rec)
	return u, token, nil
}

// Authenticate resolves a bearer token to its user. The token must both verify
// and still be present in the user's token list.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, access, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if access != models.AccessAuth {
		return nil, fmt.Errorf("%w: access %q", ErrUnauthenticated, access)
	}
	u, err := s.users.GetByToken(ctx, userID, models.AccessAuth, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	return u, nil
}

// SignOut revokes exactly the presented token; other sessions stay valid.
func (s *AuthService) SignOut(ctx context.Context, user *models.User, token string) error {
	if err := s.users.RemoveToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// findByCredentials fails with ErrInvalidCredentials for both unknown email and wrong password.
func (s *AuthService) findByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// helper: hash password safely
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
