package repository

import (
	"context"
	"errors"
	"fmt"

	"todo_api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const usersCollection = "users"

type UserMongo struct {
	coll *mongo.Collection
}

func NewUserMongo(db *mongo.Database) *UserMongo {
	return &UserMongo{coll: db.Collection(usersCollection)}
}

// Ensure implementation of UserRepo interface at compile time.
var _ UserRepo = (*UserMongo)(nil)

// Create inserts u, generating its ID when unset. Email uniqueness is enforced
// by the unique index created in db.EnsureIndexes.
func (r *UserMongo) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Tokens == nil {
		u.Tokens = []models.TokenRecord{}
	}
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user %q: %w", u.Email, err)
	}
	return nil
}

// GetByEmail fetches a user by email. Returns (nil, nil) if not found.
func (r *UserMongo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, "select user "+email)
}

// GetByToken fetches the user with the given id whose token list holds the exact pair.
func (r *UserMongo) GetByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	filter := bson.M{
		"_id":    id,
		"tokens": bson.M{"$elemMatch": bson.M{"access": access, "token": token}},
	}
	return r.findOne(ctx, filter, "select user by token "+id.Hex())
}

// AppendToken pushes rec onto the token list in a single update.
func (r *UserMongo) AppendToken(ctx context.Context, id primitive.ObjectID, rec models.TokenRecord) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$push": bson.M{"tokens": rec}})
	if err != nil {
		return fmt.Errorf("push token for user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveToken pulls every record carrying token from the token list.
func (r *UserMongo) RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}})
	if err != nil {
		return fmt.Errorf("pull token for user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserMongo) findOne(ctx context.Context, filter bson.M, what string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &u, nil
}
