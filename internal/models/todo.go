package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Todo struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Text        string             `json:"text" bson:"text"`
	Completed   bool               `json:"completed" bson:"completed"`
	CompletedAt *int64             `json:"completedAt" bson:"completedAt"` // epoch ms, nil unless completed
	Creator     primitive.ObjectID `json:"creator" bson:"_creator"`
}

// TodoUpdate is the fully resolved set of fields an update writes.
// Text is left untouched when nil; Completed and CompletedAt are always written.
type TodoUpdate struct {
	Text        *string
	Completed   bool
	CompletedAt *int64
}
