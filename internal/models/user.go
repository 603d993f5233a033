package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AccessAuth is the only session kind a token record is issued for.
const AccessAuth = "auth"

// TokenRecord is one active session of a user.
type TokenRecord struct {
	Access string `json:"access" bson:"access"`
	Token  string `json:"token" bson:"token"`
}

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password"` // don’t expose hash
	Tokens       []TokenRecord      `json:"-" bson:"tokens"`
}

// PublicUser is the only user representation ever sent to clients.
type PublicUser struct {
	ID    primitive.ObjectID `json:"id"`
	Email string             `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
