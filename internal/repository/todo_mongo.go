package repository

import (
	"context"
	"errors"
	"fmt"

	"todo_api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const todosCollection = "todos"

type TodoMongo struct {
	coll *mongo.Collection
}

func NewTodoMongo(db *mongo.Database) *TodoMongo {
	return &TodoMongo{coll: db.Collection(todosCollection)}
}

var _ TodoRepo = (*TodoMongo)(nil)

func ownedFilter(id, creator primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "_creator": creator}
}

// Create inserts t, generating its ID when unset.
func (r *TodoMongo) Create(ctx context.Context, t *models.Todo) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// ListByOwner returns all todos of creator ordered by creation.
func (r *TodoMongo) ListByOwner(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"_creator": creator}, opts)
	if err != nil {
		return nil, fmt.Errorf("find todos of %s: %w", creator.Hex(), err)
	}
	out := make([]models.Todo, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode todos of %s: %w", creator.Hex(), err)
	}
	return out, nil
}

func (r *TodoMongo) GetOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	return decodeTodo(r.coll.FindOne(ctx, ownedFilter(id, creator)), "find todo "+id.Hex())
}

// UpdateOwned applies upd and returns the document after the update.
func (r *TodoMongo) UpdateOwned(ctx context.Context, id, creator primitive.ObjectID, upd models.TodoUpdate) (*models.Todo, error) {
	set := bson.M{
		"completed":   upd.Completed,
		"completedAt": upd.CompletedAt,
	}
	if upd.Text != nil {
		set["text"] = *upd.Text
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.coll.FindOneAndUpdate(ctx, ownedFilter(id, creator), bson.M{"$set": set}, opts)
	return decodeTodo(res, "update todo "+id.Hex())
}

// DeleteOwned removes the todo and returns its prior state.
func (r *TodoMongo) DeleteOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	return decodeTodo(r.coll.FindOneAndDelete(ctx, ownedFilter(id, creator)), "delete todo "+id.Hex())
}

func decodeTodo(res *mongo.SingleResult, what string) (*models.Todo, error) {
	var t models.Todo
	if err := res.Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &t, nil
}
