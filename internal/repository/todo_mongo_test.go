package repository

import (
	"context"
	"testing"

	"todo_api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const mockTodosNS = "TodoApp.todos"

func todoDoc(id, creator primitive.ObjectID, text string, completedAt interface{}) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "text", Value: text},
		{Key: "completed", Value: completedAt != nil},
		{Key: "completedAt", Value: completedAt},
		{Key: "_creator", Value: creator},
	}
}

func TestTodoMongo_CreateAndList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	creator := primitive.NewObjectID()

	mt.Run("create assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		todo := &models.Todo{Text: "walk", Creator: creator}
		require.NoError(mt, NewTodoMongo(mt.DB).Create(context.Background(), todo))
		assert.False(mt, todo.ID.IsZero())

		cmd := sentCommand(mt, "insert")
		assertObjectID(mt, todo.ID, cmd, "documents", "0", "_id")
		assertObjectID(mt, creator, cmd, "documents", "0", "_creator")
		assert.Equal(mt, bsontype.Null, lookup(mt, cmd, "documents", "0", "completedAt").Type)
	})

	mt.Run("list is scoped to the owner and sorted by id", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockTodosNS, mtest.FirstBatch,
			todoDoc(a, creator, "a", nil),
			todoDoc(b, creator, "b", int64(1700000000000)),
		))

		todos, err := NewTodoMongo(mt.DB).ListByOwner(context.Background(), creator)
		require.NoError(mt, err)
		require.Len(mt, todos, 2)
		assert.Equal(mt, a, todos[0].ID)
		assert.Nil(mt, todos[0].CompletedAt)
		require.NotNil(mt, todos[1].CompletedAt)
		assert.Equal(mt, int64(1700000000000), *todos[1].CompletedAt)
		assert.Equal(mt, creator, todos[1].Creator)

		cmd := sentCommand(mt, "find")
		assertObjectID(mt, creator, cmd, "filter", "_creator")
		assert.Equal(mt, int32(1), lookup(mt, cmd, "sort", "_id").Int32())
	})

	mt.Run("empty list is non-nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockTodosNS, mtest.FirstBatch))

		todos, err := NewTodoMongo(mt.DB).ListByOwner(context.Background(), creator)
		require.NoError(mt, err)
		assert.NotNil(mt, todos)
		assert.Empty(mt, todos)
	})
}

func TestTodoMongo_OwnedOperations(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id, creator := primitive.NewObjectID(), primitive.NewObjectID()
	at := int64(1700000000000)

	mt.Run("get owned", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockTodosNS, mtest.FirstBatch, todoDoc(id, creator, "a", nil)))

		todo, err := NewTodoMongo(mt.DB).GetOwned(context.Background(), id, creator)
		require.NoError(mt, err)
		require.NotNil(mt, todo)
		assert.Equal(mt, "a", todo.Text)

		cmd := sentCommand(mt, "find")
		assertObjectID(mt, id, cmd, "filter", "_id")
		assertObjectID(mt, creator, cmd, "filter", "_creator")
	})

	mt.Run("get other owner", func(mt *mtest.T) {
		other := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockTodosNS, mtest.FirstBatch))

		todo, err := NewTodoMongo(mt.DB).GetOwned(context.Background(), id, other)
		assert.NoError(mt, err)
		assert.Nil(mt, todo)

		cmd := sentCommand(mt, "find")
		assertObjectID(mt, other, cmd, "filter", "_creator")
	})

	mt.Run("update sets fields on the owned todo", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: todoDoc(id, creator, "new", at)},
		})

		text := "new"
		todo, err := NewTodoMongo(mt.DB).UpdateOwned(context.Background(), id, creator,
			models.TodoUpdate{Text: &text, Completed: true, CompletedAt: &at})
		require.NoError(mt, err)
		require.NotNil(mt, todo)
		assert.True(mt, todo.Completed)
		assert.Equal(mt, at, *todo.CompletedAt)

		cmd := sentCommand(mt, "findAndModify")
		assertObjectID(mt, id, cmd, "query", "_id")
		assertObjectID(mt, creator, cmd, "query", "_creator")
		assert.Equal(mt, "$set", firstKey(mt, cmd, "update"))
		assert.Equal(mt, "new", lookup(mt, cmd, "update", "$set", "text").StringValue())
		assert.Equal(mt, at, lookup(mt, cmd, "update", "$set", "completedAt").Int64())
		assert.True(mt, lookup(mt, cmd, "new").Boolean())
	})

	mt.Run("update without text leaves it alone", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		todo, err := NewTodoMongo(mt.DB).UpdateOwned(context.Background(), id, creator, models.TodoUpdate{})
		assert.NoError(mt, err)
		assert.Nil(mt, todo)

		cmd := sentCommand(mt, "findAndModify")
		assertObjectID(mt, creator, cmd, "query", "_creator")
		assert.Equal(mt, "$set", firstKey(mt, cmd, "update"))
		_, err = cmd.LookupErr("update", "$set", "text")
		assert.Error(mt, err, "text must not be written")
		assert.Equal(mt, bsontype.Null, lookup(mt, cmd, "update", "$set", "completedAt").Type)
		assert.False(mt, lookup(mt, cmd, "update", "$set", "completed").Boolean())
	})

	mt.Run("delete returns prior state", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: todoDoc(id, creator, "a", nil)},
		})

		todo, err := NewTodoMongo(mt.DB).DeleteOwned(context.Background(), id, creator)
		require.NoError(mt, err)
		require.NotNil(mt, todo)
		assert.Equal(mt, id, todo.ID)

		cmd := sentCommand(mt, "findAndModify")
		assertObjectID(mt, id, cmd, "query", "_id")
		assertObjectID(mt, creator, cmd, "query", "_creator")
		assert.True(mt, lookup(mt, cmd, "remove").Boolean())
	})

	mt.Run("delete store error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		todo, err := NewTodoMongo(mt.DB).DeleteOwned(context.Background(), id, creator)
		require.Error(mt, err)
		assert.Nil(mt, todo)
		assert.Contains(mt, err.Error(), "delete todo")
	})
}
