package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"todo_api/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

var _ UserRepo = (*UserSQLite)(nil)

const (
	insertUserSQL        = `INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`
	insertTokenSQL       = `INSERT INTO user_tokens (user_id, access, token) VALUES (?, ?, ?)`
	selectUserByEmailSQL = `SELECT id, email, password_hash FROM users WHERE email = ?`
	selectUserByTokenSQL = `SELECT u.id, u.email, u.password_hash FROM users u JOIN user_tokens t ON t.user_id = u.id WHERE u.id = ? AND t.access = ? AND t.token = ? LIMIT 1`
	selectTokensSQL      = `SELECT access, token FROM user_tokens WHERE user_id = ? ORDER BY seq ASC`
	deleteTokenSQL       = `DELETE FROM user_tokens WHERE user_id = ? AND token = ?`
)

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Create inserts the user row and any initial tokens in one transaction.
func (r *UserSQLite) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert user %q: %w", u.Email, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertUserSQL, u.ID.Hex(), u.Email, u.PasswordHash); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user %q: %w", u.Email, err)
	}
	for _, t := range u.Tokens {
		if _, err := tx.ExecContext(ctx, insertTokenSQL, u.ID.Hex(), t.Access, t.Token); err != nil {
			return fmt.Errorf("insert token for user %q: %w", u.Email, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert user %q: %w", u.Email, err)
	}
	return nil
}

// GetByEmail fetches a user by email. Returns (nil, nil) if not found.
func (r *UserSQLite) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserByEmailSQL, email))
	if err != nil || u == nil {
		if err != nil {
			return nil, fmt.Errorf("select user %q: %w", email, err)
		}
		return nil, nil
	}
	return r.withTokens(ctx, u)
}

func (r *UserSQLite) GetByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserByTokenSQL, id.Hex(), access, token))
	if err != nil || u == nil {
		if err != nil {
			return nil, fmt.Errorf("select user by token %s: %w", id.Hex(), err)
		}
		return nil, nil
	}
	return r.withTokens(ctx, u)
}

// AppendToken adds one token row; existing rows are never rewritten.
func (r *UserSQLite) AppendToken(ctx context.Context, id primitive.ObjectID, rec models.TokenRecord) error {
	if _, err := r.db.ExecContext(ctx, insertTokenSQL, id.Hex(), rec.Access, rec.Token); err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert token for user %s: %w", id.Hex(), err)
	}
	return nil
}

func (r *UserSQLite) RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error {
	if _, err := r.db.ExecContext(ctx, deleteTokenSQL, id.Hex(), token); err != nil {
		return fmt.Errorf("delete token for user %s: %w", id.Hex(), err)
	}
	return nil
}

func (r *UserSQLite) scanUser(row *sql.Row) (*models.User, error) {
	var (
		u     models.User
		idHex string
	)
	if err := row.Scan(&idHex, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, fmt.Errorf("stored user id %q: %w", idHex, err)
	}
	u.ID = id
	return &u, nil
}

func (r *UserSQLite) withTokens(ctx context.Context, u *models.User) (*models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectTokensSQL, u.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("select tokens of %s: %w", u.ID.Hex(), err)
	}
	defer rows.Close()

	u.Tokens = make([]models.TokenRecord, 0, 4)
	for rows.Next() {
		var t models.TokenRecord
		if err := rows.Scan(&t.Access, &t.Token); err != nil {
			return nil, fmt.Errorf("scan token of %s: %w", u.ID.Hex(), err)
		}
		u.Tokens = append(u.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens of %s: %w", u.ID.Hex(), err)
	}
	return u, nil
}
