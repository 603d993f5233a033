package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"todo_api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return db, mock, cleanup
}

func hasToken(u *models.User, access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}

func TestUserSQLite_Create(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name           string
		tokens         []models.TokenRecord
		mockExpect     func(sqlmock.Sqlmock)
		wantErr        error
		errContainsStr string
	}{
		{
			name:   "success with initial token",
			tokens: []models.TokenRecord{{Access: models.AccessAuth, Token: "t1"}},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs(id.Hex(), "alice@example.com", "h123").
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(regexp.QuoteMeta(insertTokenSQL)).
					WithArgs(id.Hex(), models.AccessAuth, "t1").
					WillReturnResult(sqlmock.NewResult(1, 1))
				m.ExpectCommit()
			},
		},
		{
			name: "duplicate email",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs(id.Hex(), "alice@example.com", "h123").
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))
				m.ExpectRollback()
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name:   "token insert fails rolls back",
			tokens: []models.TokenRecord{{Access: models.AccessAuth, Token: "t1"}},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs(id.Hex(), "alice@example.com", "h123").
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(regexp.QuoteMeta(insertTokenSQL)).
					WithArgs(id.Hex(), models.AccessAuth, "t1").
					WillReturnError(errors.New("disk full"))
				m.ExpectRollback()
			},
			errContainsStr: "insert token",
		},
		{
			name: "begin fails",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(errors.New("locked"))
			},
			errContainsStr: "begin insert user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			tt.mockExpect(mock)

			u := &models.User{ID: id, Email: "alice@example.com", PasswordHash: "h123", Tokens: tt.tokens}
			err := NewUserSQLite(db).Create(context.Background(), u)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.errContainsStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.errContainsStr) {
					t.Fatalf("expected error containing %q, got %v", tt.errContainsStr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestUserSQLite_GetByEmail(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name           string
		mockExpect     func(sqlmock.Sqlmock)
		wantUser       bool
		wantTokens     []string
		errContainsStr string
	}{
		{
			name: "found with tokens in order",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("alice@example.com").
					WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
						AddRow(id.Hex(), "alice@example.com", "h123"))
				m.ExpectQuery(regexp.QuoteMeta(selectTokensSQL)).
					WithArgs(id.Hex()).
					WillReturnRows(sqlmock.NewRows([]string{"access", "token"}).
						AddRow("auth", "t1").
						AddRow("auth", "t2"))
			},
			wantUser:   true,
			wantTokens: []string{"t1", "t2"},
		},
		{
			name: "not found (ErrNoRows)",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("alice@example.com").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "query error",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("alice@example.com").
					WillReturnError(errors.New("db query failed"))
			},
			errContainsStr: "select user",
		},
		{
			name: "corrupt stored id",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("alice@example.com").
					WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
						AddRow("42", "alice@example.com", "h123"))
			},
			errContainsStr: "stored user id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			tt.mockExpect(mock)

			u, err := NewUserSQLite(db).GetByEmail(context.Background(), "alice@example.com")

			if tt.errContainsStr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContainsStr) {
					t.Fatalf("expected error containing %q, got %v", tt.errContainsStr, err)
				}
				if u != nil {
					t.Fatalf("expected user=nil on error, got %+v", u)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.wantUser {
				if u != nil {
					t.Fatalf("expected nil user, got %+v", u)
				}
				return
			}
			if u == nil || u.ID != id || u.Email != "alice@example.com" || u.PasswordHash != "h123" {
				t.Fatalf("unexpected user: %+v", u)
			}
			if len(u.Tokens) != len(tt.wantTokens) {
				t.Fatalf("tokens: got %+v, want %v", u.Tokens, tt.wantTokens)
			}
			for i, tok := range tt.wantTokens {
				if u.Tokens[i].Token != tok || u.Tokens[i].Access != models.AccessAuth {
					t.Fatalf("token %d: got %+v, want %s", i, u.Tokens[i], tok)
				}
			}
		})
	}
}

func TestUserSQLite_GetByToken(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("match", func(t *testing.T) {
		db, mock, cleanup := newMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(selectUserByTokenSQL)).
			WithArgs(id.Hex(), "auth", "t1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
				AddRow(id.Hex(), "alice@example.com", "h123"))
		mock.ExpectQuery(regexp.QuoteMeta(selectTokensSQL)).
			WithArgs(id.Hex()).
			WillReturnRows(sqlmock.NewRows([]string{"access", "token"}).AddRow("auth", "t1"))

		u, err := NewUserSQLite(db).GetByToken(context.Background(), id, "auth", "t1")
		if err != nil || u == nil || u.ID != id || !hasToken(u, "auth", "t1") {
			t.Fatalf("unexpected result: %+v, %v", u, err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		db, mock, cleanup := newMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(selectUserByTokenSQL)).
			WithArgs(id.Hex(), "auth", "gone").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}))

		u, err := NewUserSQLite(db).GetByToken(context.Background(), id, "auth", "gone")
		if err != nil || u != nil {
			t.Fatalf("expected (nil, nil), got %+v, %v", u, err)
		}
	})
}

func TestUserSQLite_AppendToken(t *testing.T) {
	id := primitive.NewObjectID()
	rec := models.TokenRecord{Access: models.AccessAuth, Token: "t2"}

	tests := []struct {
		name    string
		execErr error
		wantErr error
		wantAny bool
	}{
		{name: "success"},
		{name: "unknown user", execErr: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), wantErr: ErrNotFound},
		{name: "exec error", execErr: errors.New("disk I/O error"), wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()

			exp := mock.ExpectExec(regexp.QuoteMeta(insertTokenSQL)).WithArgs(id.Hex(), "auth", "t2")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(5, 1))
			}

			err := NewUserSQLite(db).AppendToken(context.Background(), id, rec)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantAny:
				if err == nil || errors.Is(err, ErrNotFound) {
					t.Fatalf("expected wrapped exec error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestUserSQLite_RemoveToken(t *testing.T) {
	id := primitive.NewObjectID()

	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(deleteTokenSQL)).
		WithArgs(id.Hex(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteTokenSQL)).
		WithArgs(id.Hex(), "t1").
		WillReturnError(errors.New("db exec failed"))

	repo := NewUserSQLite(db)
	if err := repo.RemoveToken(context.Background(), id, "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.RemoveToken(context.Background(), id, "t1"); err == nil || !strings.Contains(err.Error(), "delete token") {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}
